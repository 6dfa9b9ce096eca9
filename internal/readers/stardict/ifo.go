// Package stardict reads the StarDict .ifo/.idx/.syn/.dict(.dz)
// companion-file format. The .dz payload is decoded through this
// module's blockcodec package instead of shelling out to dictzip.
package stardict

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// supportedVersions lists the only StarDict format revisions recognized.
var supportedVersions = map[string]bool{"2.4.2": true, "3.0.0": true}

// Ifo holds the subset of .ifo metadata the reader needs.
type Ifo struct {
	Version           string
	WordCount         int
	SameTypeSequence  string
	IdxOffsetBits     int // 32 (default) or 64, per the "idxoffsetbits" field
	BookName          string
}

// ParseIfo reads a StarDict .ifo metadata file.
func ParseIfo(path string) (Ifo, error) {
	f, err := os.Open(path)
	if err != nil {
		return Ifo{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "open ifo file", err)
	}
	defer f.Close()

	ifo := Ifo{IdxOffsetBits: 32}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		switch key {
		case "version":
			ifo.Version = value
		case "wordcount":
			ifo.WordCount, _ = strconv.Atoi(value)
		case "sametypesequence":
			ifo.SameTypeSequence = value
		case "idxoffsetbits":
			if n, err := strconv.Atoi(value); err == nil {
				ifo.IdxOffsetBits = n
			}
		case "bookname":
			ifo.BookName = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Ifo{}, engineerrs.New(engineerrs.ErrCodeCorruptStream, "scan ifo file", err)
	}
	if ifo.Version != "" && !supportedVersions[ifo.Version] {
		return Ifo{}, engineerrs.New(engineerrs.ErrCodeUnsupportedVersion, "stardict version "+ifo.Version+" is not supported", nil)
	}
	return ifo, nil
}
