package dsl

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// extractZipMembers pulls the named members out of a .files.zip archive
// into destDir, in parallel, mirroring the concurrent member-at-a-time
// extraction the DSL reference implementation uses because ZipFile's
// extractall() is too slow for large media archives.
func extractZipMembers(zipPath, destDir string, names []string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		byName[f.Name] = f
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	var g errgroup.Group
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			continue
		}
		f := f
		g.Go(func() error {
			return extractOne(f, destDir)
		})
	}
	return g.Wait()
}

func extractOne(f *zip.File, destDir string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	destPath := filepath.Join(destDir, filepath.Base(f.Name))
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
