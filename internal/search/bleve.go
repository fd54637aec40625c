package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/starford/swashbuckle/internal/models"
)

// Bleve is an in-memory search engine rebuilt from the current posts.
type Bleve struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewBleve builds an engine over posts.
func NewBleve(posts []models.Post) (*Bleve, error) {
	b := &Bleve{}
	if err := b.Rebuild(posts); err != nil {
		return nil, err
	}
	return b, nil
}

// Rebuild replaces the indexed documents with posts.
func (b *Bleve) Rebuild(posts []models.Post) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}
	batch := idx.NewBatch()
	for _, p := range posts {
		summary := p.Description
		if summary == "" {
			summary = p.Excerpt
		}
		doc := map[string]any{
			"title":   p.Title,
			"summary": summary,
			"body":    p.Body,
		}
		if err := batch.Index(p.Route, doc); err != nil {
			idx.Close()
			return fmt.Errorf("search: index %s: %w", p.Route, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("search: index batch: %w", err)
	}

	b.mu.Lock()
	old := b.index
	b.index = idx
	b.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search runs a match query over title, summary and body.
func (b *Bleve) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if len(Terms(query)) == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = ClampLimit(limit)
	req.Fields = []string{"title", "summary"}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return nil, fmt.Errorf("search: index closed")
	}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Route: h.ID, Score: h.Score}
		if s, ok := h.Fields["title"].(string); ok {
			hit.Title = s
		}
		if s, ok := h.Fields["summary"].(string); ok {
			hit.Snippet = s
		}
		out = append(out, hit)
	}
	return out, nil
}

// Close releases the index.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil
	return err
}
