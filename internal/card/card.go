// Package card builds the citation cards shown under chat answers and on
// the post listing.
package card

import (
	"github.com/starford/swashbuckle/internal/models"
	"github.com/starford/swashbuckle/internal/parser"
)

// SummaryLength is the maximum summary length in runes.
const SummaryLength = 160

// Card is the rendering view of one post.
type Card struct {
	Route    string `json:"route"`
	Title    string `json:"title"`
	Date     string `json:"date,omitempty"`
	Summary  string `json:"summary,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Lookup resolves a route to a post. *content.Index and *content.Holder satisfy it.
type Lookup interface {
	FindByRoute(route string) (models.Post, bool)
}

// FromPost builds a card. The description wins over the excerpt.
func FromPost(p models.Post) Card {
	summary := p.Description
	if summary == "" {
		summary = p.Excerpt
	}
	c := Card{
		Route:   p.Route,
		Title:   p.Title,
		Date:    p.DisplayDate,
		Summary: parser.Prune(summary, SummaryLength),
	}
	if p.Image != nil {
		c.ImageURL = p.Image.URL
	}
	return c
}

// FromPosts maps FromPost over posts.
func FromPosts(posts []models.Post) []Card {
	out := make([]Card, 0, len(posts))
	for _, p := range posts {
		out = append(out, FromPost(p))
	}
	return out
}

// Resolve maps sources to cards in order. Routes the lookup does not know
// are dropped.
func Resolve(lookup Lookup, sources []string) []Card {
	out := make([]Card, 0, len(sources))
	for _, route := range sources {
		p, ok := lookup.FindByRoute(route)
		if !ok {
			continue
		}
		out = append(out, FromPost(p))
	}
	return out
}
