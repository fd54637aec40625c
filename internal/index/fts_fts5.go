//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/swashbuckle/internal/search"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			route UNINDEXED,
			title,
			description,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, route, title, description, body string) error {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE route = ?`, route)
	_, err := tx.Exec(`INSERT INTO posts_fts (route, title, description, body) VALUES (?, ?, ?, ?)`,
		route, title, description, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, route string) {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE route = ?`, route)
}

// matchExpr quotes every term so user input is never parsed as FTS syntax.
func matchExpr(query string) string {
	terms := search.Terms(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns hits with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	expr := matchExpr(query)
	if expr == "" {
		return nil, nil
	}
	limit = search.ClampLimit(limit)
	// Title hits outweigh description hits, which outweigh body hits.
	rows, err := db.conn.QueryContext(ctx, `
		SELECT route,
		       title,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 24),
		       -bm25(posts_fts, 0.0, 10.0, 4.0, 1.0) AS score
		FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY score DESC
		LIMIT ?
	`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []search.Hit
	for rows.Next() {
		var h search.Hit
		if err := rows.Scan(&h.Route, &h.Title, &h.Snippet, &h.Score); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
