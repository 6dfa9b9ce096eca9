// Package indexstore implements IndexStore: the persistent
// keyed store mapping (simplified_key, dictionary_id) -> {headword, offset,
// size}, plus the auxiliary n-gram inverted index used for substring
// search. It is backed by SQLite (modernc.org/sqlite, a pure-Go driver —
// the same backend the teacher's SQLiteBM25Index uses — so the engine
// never requires CGO to run), following the teacher's WAL-mode,
// single-writer connection pattern.
package indexstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// EntryRow is one row to insert during ingestion.
type EntryRow struct {
	Key            string
	DictionaryName string
	Word           string
	Offset         int64
	Size           int64
}

// Entry is a resolved lookup result.
type Entry struct {
	Word   string
	Offset int64
	Size   int64
}

// Store is the process-wide IndexStore handle. It must be constructed once
// and shared (injected) across Readers and QueryEngine, per DESIGN.md's
// replacement of the teacher's thread-local-connection idiom with an
// explicit handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger

	// writeMu serializes ingestion, rebuild, and delete within this
	// process. Readers are not blocked by it.
	writeMu sync.Mutex

	// procLock additionally serializes writers across processes sharing
	// the same dictionaries.db, using the same file-lock idiom the
	// teacher's embed package uses for model downloads.
	procLock *flock.Flock

	// tx holds the in-flight bulk-insert transaction between BulkInsert
	// calls and Commit.
	tx   *sql.Tx
	stmt *sql.Stmt
}

// Open opens (creating if needed) the SQLite-backed index store at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index store directory: %w", err)
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "open sqlite", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = OFF",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "set pragma "+p, err)
		}
	}

	s := &Store{db: db, log: log}
	if path != ":memory:" {
		s.procLock = flock.New(path + ".lock")
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		dictionary_name TEXT NOT NULL,
		word TEXT NOT NULL,
		offset INTEGER NOT NULL,
		size INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ngrams (
		ngram TEXT NOT NULL,
		idxs TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ngrams_ngram ON ngrams(ngram);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "init schema", err)
	}
	return s.ensureEntryIndex()
}

func (s *Store) ensureEntryIndex() error {
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_key_dict_word ON entries(key, dictionary_name, word)`)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "create entry index", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// lockProcWide acquires the cross-process lock, if any, for the duration of
// a writer operation. It is a no-op for in-memory stores used in tests.
func (s *Store) lockProcWide() (func(), error) {
	if s.procLock == nil {
		return func() {}, nil
	}
	locked, err := s.procLock.TryLock()
	if err != nil {
		return nil, engineerrs.New(engineerrs.ErrCodeIndexStore, "acquire process lock", err)
	}
	if !locked {
		return nil, engineerrs.New(engineerrs.ErrCodeBusy, "index store busy in another process", nil)
	}
	return func() { _ = s.procLock.Unlock() }, nil
}
