package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Route       string
	SourcePath  string
	Title       string
	Description string
	Excerpt     string
	Published   time.Time
	Checksum    string
	UpdatedAt   time.Time
}

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var published any
	if !p.Published.IsZero() {
		published = p.Published.UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO posts (route, source_path, title, description, excerpt, published, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(route) DO UPDATE SET
			source_path = excluded.source_path,
			title       = excluded.title,
			description = excluded.description,
			excerpt     = excluded.excerpt,
			published   = excluded.published,
			checksum    = excluded.checksum,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, p.Route, p.SourcePath, p.Title, p.Description, p.Excerpt, published, p.Checksum, body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Route, p.Title, p.Description, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(route string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, route)
	if _, err := tx.Exec(`DELETE FROM posts WHERE route = ?`, route); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a route, or empty string if not found.
func (db *DB) GetChecksum(route string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE route = ?`, route).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// Stamp identifies the indexed revision of a post.
type Stamp struct {
	Checksum   string
	SourcePath string
}

// AllStamps returns route → stamp for every indexed post.
func (db *DB) AllStamps() (map[string]Stamp, error) {
	rows, err := db.conn.Query(`SELECT route, checksum, source_path FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all stamps: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Stamp)
	for rows.Next() {
		var route string
		var st Stamp
		if err := rows.Scan(&route, &st.Checksum, &st.SourcePath); err != nil {
			return nil, err
		}
		out[route] = st
	}
	return out, rows.Err()
}

// Count returns the number of indexed posts.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
