// Package search maintains the full-text index over section text. The index
// is embedded (bleve) and keyed by section uid, so re-indexing a section is
// an idempotent overwrite.
package search

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve"
)

// SectionDoc is the indexed shape of a section.
type SectionDoc struct {
	UID     string `json:"uid"`
	Title   int    `json:"title"`
	Part    string `json:"part"`
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Hit is one ranked search result with a locatable snippet.
type Hit struct {
	UID     string  `json:"uid"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
	Snippet string  `json:"snippet"`
}

// Index wraps a bleve index over section documents.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it when absent. An empty path opens
// a memory-only index, which tests use.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("open in-memory search index: %w", err)
		}
		return &Index{idx: idx}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		idx, err := bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index %s: %w", path, err)
		}
		return &Index{idx: idx}, nil
	}
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open search index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func (x *Index) Close() error { return x.idx.Close() }

// Upsert indexes (or re-indexes) one section document.
func (x *Index) Upsert(doc SectionDoc) error {
	if err := x.idx.Index(doc.UID, doc); err != nil {
		return fmt.Errorf("index section %s: %w", doc.UID, err)
	}
	return nil
}

// Delete removes a section from the index.
func (x *Index) Delete(uid string) error {
	return x.idx.Delete(uid)
}

// Query runs a query-string search and returns ranked hits with highlighted
// snippets from the text field.
func (x *Index) Query(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("text")

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for i, h := range res.Hits {
		snippet := ""
		if frags, ok := h.Fragments["text"]; ok && len(frags) > 0 {
			snippet = frags[0]
		}
		hits = append(hits, Hit{UID: h.ID, Score: h.Score, Rank: i + 1, Snippet: snippet})
	}
	return hits, nil
}
