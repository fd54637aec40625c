package index

import (
	"context"

	"github.com/starford/swashbuckle/internal/search"
)

// PostIndex defines the persistence operations used by sync and search.
// Consumers should depend on this interface rather than the concrete *DB.
type PostIndex interface {
	UpsertPost(p PostRow, body string) error
	DeletePost(route string) error
	GetChecksum(route string) (string, error)
	AllStamps() (map[string]Stamp, error)
	Count() (int, error)
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
	Close() error
}

var (
	_ PostIndex       = (*DB)(nil)
	_ search.Searcher = (*DB)(nil)
)
