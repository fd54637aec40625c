// Package content holds the read-only Content Index: every published post,
// addressable by route and ordered by publication date.
package content

import (
	"sort"
	"sync/atomic"

	"github.com/starford/swashbuckle/internal/models"
)

// Index is an immutable collection of posts. Build it once with New or Load;
// it is safe for concurrent readers.
type Index struct {
	posts   []models.Post
	byRoute map[string]int
}

// New builds an index from posts. When two posts share a route the first one
// in input order wins. Posts are ordered newest first; equal dates keep their
// input order.
func New(posts []models.Post) *Index {
	seen := make(map[string]struct{}, len(posts))
	sorted := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.Route]; dup {
			continue
		}
		seen[p.Route] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	byRoute := make(map[string]int, len(sorted))
	for i, p := range sorted {
		byRoute[p.Route] = i
	}
	return &Index{posts: sorted, byRoute: byRoute}
}

// FindByRoute returns the post whose route equals route exactly.
// A missing route is reported with ok == false.
func (idx *Index) FindByRoute(route string) (models.Post, bool) {
	i, ok := idx.byRoute[route]
	if !ok {
		return models.Post{}, false
	}
	return idx.posts[i], true
}

// All returns every post, newest first. The slice is a copy.
func (idx *Index) All() []models.Post {
	out := make([]models.Post, len(idx.posts))
	copy(out, idx.posts)
	return out
}

// Len returns the number of posts.
func (idx *Index) Len() int {
	return len(idx.posts)
}

// Holder publishes the current index to concurrent readers. A reload swaps
// in a whole new index; readers never observe a partial one.
type Holder struct {
	cur atomic.Pointer[Index]
}

// NewHolder returns a holder serving idx.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	h.Store(idx)
	return h
}

// Load returns the current index.
func (h *Holder) Load() *Index {
	if idx := h.cur.Load(); idx != nil {
		return idx
	}
	return New(nil)
}

// Store replaces the current index.
func (h *Holder) Store(idx *Index) {
	h.cur.Store(idx)
}

// FindByRoute looks route up in the current index.
func (h *Holder) FindByRoute(route string) (models.Post, bool) {
	return h.Load().FindByRoute(route)
}
