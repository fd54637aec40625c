// Package search defines the post search contract and an in-memory engine.
package search

import (
	"context"
	"strings"
)

// Engines.
const (
	EngineSQLite = "sqlite"
	EngineBleve  = "bleve"
)

// DefaultLimit and MaxLimit bound result counts.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Hit is one search result.
type Hit struct {
	Route   string  `json:"route"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher finds posts matching a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// Terms splits a query into non-empty whitespace separated terms.
func Terms(query string) []string {
	return strings.Fields(query)
}

// ClampLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
