package api

import (
	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/search"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query   string `json:"query"`
	Variant string `json:"variant,omitempty"`
}

// PostListResponse is the body of GET /api/posts.
type PostListResponse struct {
	Posts []card.Card `json:"posts"`
	Total int         `json:"total"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Results []search.Hit `json:"results"`
}

// VariantsResponse is the body of GET /api/variants.
type VariantsResponse struct {
	Variants []chat.Variant `json:"variants"`
}
