package chat

import (
	"fmt"

	"github.com/starford/swashbuckle/internal/apperr"
)

// Variant is a named preset selecting the backend route a query is sent to.
type Variant struct {
	Name  string `yaml:"name" json:"name"`
	Route string `yaml:"route" json:"route"`
}

// DefaultVariants returns the presets the blog ships with. The first entry
// is the default selection.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "default", Route: "chat"},
		{Name: "stricter-prompt", Route: "chat-stricter"},
		{Name: "more-context", Route: "chat-more-context"},
	}
}

// Variants is an ordered set of presets.
type Variants []Variant

// Lookup finds a variant by name.
func (v Variants) Lookup(name string) (Variant, error) {
	for _, x := range v {
		if x.Name == name {
			return x, nil
		}
	}
	return Variant{}, fmt.Errorf("chat: %q: %w", name, apperr.ErrUnknownVariant)
}

// Names returns the variant names in order.
func (v Variants) Names() []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = x.Name
	}
	return out
}

// Next returns the name following name, wrapping around. An unknown name
// yields the first variant.
func (v Variants) Next(name string) string {
	if len(v) == 0 {
		return ""
	}
	for i, x := range v {
		if x.Name == name {
			return v[(i+1)%len(v)].Name
		}
	}
	return v[0].Name
}
