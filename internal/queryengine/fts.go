package queryengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// docIDSeparator joins a dictionary_id and headword into one Bleve
// document ID. U+001F (unit separator) cannot appear in either field, so
// the join is unambiguous to split back apart.
const docIDSeparator = "\x1f"

func ftsDocID(dictionaryID, headword string) string {
	return dictionaryID + docIDSeparator + headword
}

func splitFTSDocID(id string) (dictionaryID, headword string) {
	i := strings.Index(id, docIDSeparator)
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// ftsDocument is the Bleve-indexed representation of one headword.
type ftsDocument struct {
	Headword     string `json:"headword"`
	DictionaryID string `json:"dictionary_id"`
}

// FTSHit is one full-text search result.
type FTSHit struct {
	DictionaryID string
	Headword     string
	Score        float64
}

// FTSIndex wraps a Bleve index over every dictionary's headwords, grounded
// on the BleveBM25Index wrapper: in-memory when path is empty, disk-backed
// otherwise, with the same open-or-create fallback.
type FTSIndex struct {
	index bleve.Index
}

func ftsMapping() *mapping.IndexMappingImpl { //nolint:revive
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	headwordField := bleve.NewTextFieldMapping()
	headwordField.Analyzer = "standard"
	docMapping.AddFieldMappingsAt("headword", headwordField)

	dictIDField := bleve.NewTextFieldMapping()
	dictIDField.Analyzer = "keyword"
	dictIDField.Index = true
	docMapping.AddFieldMappingsAt("dictionary_id", dictIDField)

	im.AddDocumentMapping("_default", docMapping)
	return im
}

// OpenFTSIndex opens (or creates) the headword full-text index at path. An
// empty path builds an in-memory-only index, used in tests.
func OpenFTSIndex(path string) (*FTSIndex, error) {
	im := ftsMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("queryengine: open fts index: %w", err)
	}
	return &FTSIndex{index: idx}, nil
}

// Index adds or replaces the headword document for (dictionaryID, headword).
func (f *FTSIndex) Index(dictionaryID, headword string) error {
	return f.index.Index(ftsDocID(dictionaryID, headword), ftsDocument{
		Headword:     headword,
		DictionaryID: dictionaryID,
	})
}

// IndexBatch adds or replaces many headword documents in one batch.
func (f *FTSIndex) IndexBatch(dictionaryID string, headwords []string) error {
	if len(headwords) == 0 {
		return nil
	}
	batch := f.index.NewBatch()
	for _, h := range headwords {
		if err := batch.Index(ftsDocID(dictionaryID, h), ftsDocument{
			Headword:     h,
			DictionaryID: dictionaryID,
		}); err != nil {
			return fmt.Errorf("queryengine: batch index %q: %w", h, err)
		}
	}
	return f.index.Batch(batch)
}

// Delete removes every document belonging to dictionaryID.
func (f *FTSIndex) Delete(ctx context.Context, dictionaryID string) error {
	dictQuery := bleve.NewTermQuery(dictionaryID)
	dictQuery.SetField("dictionary_id")
	req := bleve.NewSearchRequest(dictQuery)
	req.Fields = nil
	req.Size = 1 << 20

	result, err := f.index.SearchInContext(ctx, req)
	if err != nil {
		return fmt.Errorf("queryengine: find docs to delete: %w", err)
	}
	if len(result.Hits) == 0 {
		return nil
	}
	batch := f.index.NewBatch()
	for _, hit := range result.Hits {
		batch.Delete(hit.ID)
	}
	return f.index.Batch(batch)
}

// Search runs a full-text match of query across every indexed
// headword, optionally restricted to dicts, returning up to limit hits
// ordered by descending score.
func (f *FTSIndex) Search(ctx context.Context, query string, dicts []string, limit int) ([]FTSHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("headword")

	var q bleve.Query
	if len(dicts) > 0 {
		dictClauses := make([]bleve.Query, len(dicts))
		for i, d := range dicts {
			dq := bleve.NewTermQuery(d)
			dq.SetField("dictionary_id")
			dictClauses[i] = dq
		}
		dictQuery := bleve.NewDisjunctionQuery(dictClauses...)
		q = bleve.NewConjunctionQuery(matchQuery, dictQuery)
	} else {
		q = matchQuery
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit

	result, err := f.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("queryengine: fts search: %w", err)
	}

	hits := make([]FTSHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		dictionaryID, headword := splitFTSDocID(hit.ID)
		hits = append(hits, FTSHit{DictionaryID: dictionaryID, Headword: headword, Score: hit.Score})
	}
	return hits, nil
}

// Close releases the underlying Bleve index handle.
func (f *FTSIndex) Close() error {
	return f.index.Close()
}
