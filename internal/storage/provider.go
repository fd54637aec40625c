// Package storage gives the content and output trees a rooted file API.
// Paths are slash-separated and relative to the root; anything resolving
// outside the root is rejected.
package storage

import "time"

// Entry describes one file found by List.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Provider is the file API the loader and the site builder depend on.
type Provider interface {
	// List walks dir and returns files whose name ends in ext (every file
	// when ext is empty), in lexical path order. Dot-prefixed names are skipped.
	List(dir, ext string) ([]Entry, error)
	Read(path string) ([]byte, error)
	// Write replaces path atomically, creating parent directories.
	Write(path string, content []byte) error
	Delete(path string) error
	Root() string
}
