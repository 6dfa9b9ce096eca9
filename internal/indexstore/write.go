package indexstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/silverdict-go/silverdict/internal/engineerrs"
)

// DropEntryIndex drops the composite entry index to accelerate bulk insert.
// Must be paired with CreateEntryIndex once ingestion ends.
func (s *Store) DropEntryIndex() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.Exec(`DROP INDEX IF EXISTS idx_entries_key_dict_word`)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "drop entry index", err)
	}
	return nil
}

// CreateEntryIndex recreates the composite entry index.
func (s *Store) CreateEntryIndex() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ensureEntryIndex()
}

// BulkInsert appends rows to the entries table inside the ingestion
// transaction, opening one lazily on first use. Callers must call Commit
// once done.
func (s *Store) BulkInsert(rows []EntryRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return engineerrs.New(engineerrs.ErrCodeIndexStore, "begin bulk insert", err)
		}
		stmt, err := tx.Prepare(`INSERT INTO entries(key, dictionary_name, word, offset, size) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return engineerrs.New(engineerrs.ErrCodeIndexStore, "prepare bulk insert", err)
		}
		s.tx = tx
		s.stmt = stmt
	}

	for _, row := range rows {
		if _, err := s.stmt.Exec(row.Key, row.DictionaryName, row.Word, row.Offset, row.Size); err != nil {
			return engineerrs.New(engineerrs.ErrCodeIndexStore, "insert entry row", err)
		}
	}
	return nil
}

// Commit finalizes the in-flight bulk-insert transaction, if any.
func (s *Store) Commit() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.tx == nil {
		return nil
	}
	if s.stmt != nil {
		_ = s.stmt.Close()
		s.stmt = nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "commit bulk insert", err)
	}
	return nil
}

// DeleteDictionary removes every entry (and, transitively, ngram postings)
// belonging to dictionaryName. It cascades across both tables by rebuilding
// the ngram table afterward, which is simpler than surgically filtering
// stale postings and gives the same "consistent with entries" invariant.
func (s *Store) DeleteDictionary(dictionaryName string) error {
	unlock, err := s.lockProcWide()
	if err != nil {
		return err
	}
	defer unlock()

	s.writeMu.Lock()
	_, err = s.db.Exec(`DELETE FROM entries WHERE dictionary_name = ?`, dictionaryName)
	s.writeMu.Unlock()
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "delete dictionary entries", err)
	}

	return s.RebuildNGramTable(context.Background(), false)
}

// RebuildNGramTable walks every entry, generates the length-4 substrings of
// each key (or of each headword when includeKeysAsRows is true — the flag
// toggles generating grams from words instead of keys), and rebuilds the
// postings. It builds into a shadow table and swaps it in under one
// transaction so a cancelled rebuild leaves the old table intact.
func (s *Store) RebuildNGramTable(ctx context.Context, includeKeysAsRows bool) error {
	unlock, err := s.lockProcWide()
	if err != nil {
		return err
	}
	defer unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	column := "key"
	if includeKeysAsRows {
		column = "word"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, %s FROM entries ORDER BY id`, column))
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "scan entries for ngram rebuild", err)
	}
	postings := make(map[string][]int64)
	for rows.Next() {
		select {
		case <-ctx.Done():
			_ = rows.Close()
			return engineerrs.New(engineerrs.ErrCodeBusy, "ngram rebuild cancelled", ctx.Err())
		default:
		}
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			_ = rows.Close()
			return engineerrs.New(engineerrs.ErrCodeIndexStore, "scan entry row", err)
		}
		for _, g := range NGrams(text) {
			postings[g] = append(postings[g], id)
		}
	}
	if err := rows.Err(); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "iterate entries", err)
	}
	if err := rows.Close(); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "close rows", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "begin ngram rebuild", err)
	}

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ngrams_shadow`); err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "drop shadow table", err)
	}
	if _, err := tx.Exec(`CREATE TABLE ngrams_shadow (ngram TEXT NOT NULL, idxs TEXT NOT NULL)`); err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "create shadow table", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ngrams_shadow(ngram, idxs) VALUES (?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "prepare shadow insert", err)
	}
	for gram, ids := range postings {
		if _, err := stmt.Exec(gram, encodePostings(ids)); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return engineerrs.New(engineerrs.ErrCodeIndexStore, "insert shadow posting", err)
		}
	}
	_ = stmt.Close()

	if _, err := tx.Exec(`DROP TABLE ngrams`); err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "drop old ngrams table", err)
	}
	if _, err := tx.Exec(`ALTER TABLE ngrams_shadow RENAME TO ngrams`); err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "swap shadow table", err)
	}
	if _, err := tx.Exec(`CREATE INDEX idx_ngrams_ngram ON ngrams(ngram)`); err != nil {
		_ = tx.Rollback()
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "index shadow table", err)
	}

	if err := tx.Commit(); err != nil {
		return engineerrs.New(engineerrs.ErrCodeIndexStore, "commit ngram rebuild", err)
	}
	return nil
}

// encodePostings encodes rowids as a comma-separated, rowid-ordered string.
func encodePostings(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func decodePostings(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
