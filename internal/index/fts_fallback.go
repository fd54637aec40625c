//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/swashbuckle/internal/search"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on posts columns.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error {
	// Body is already stored in the posts table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Every term must appear in the title, description or body.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	terms := search.Terms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	limit = search.ClampLimit(limit)

	var (
		where []string
		args  []any
	)
	for _, t := range terms {
		like := "%" + t + "%"
		where = append(where, `(title LIKE ? OR description LIKE ? OR body LIKE ?)`)
		args = append(args, like, like, like)
	}
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT route, title, CASE WHEN description != '' THEN description ELSE excerpt END
		FROM posts
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY published DESC, route
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []search.Hit
	for rows.Next() {
		var h search.Hit
		if err := rows.Scan(&h.Route, &h.Title, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
