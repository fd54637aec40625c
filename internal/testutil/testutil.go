// Package testutil provides shared test helpers for content trees, databases
// and a fake chat backend.
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/index"
	"github.com/starford/swashbuckle/internal/storage"
)

// Posts is a small blog used across package tests.
var Posts = map[string]string{
	"jest-mocks/index.md": "---\ntitle: Automatic mocks in Jest\ndate: 2021-05-02\ndescription: Mock an import without boilerplate\n---\nUse `jest.mock` to replace a module import.\n",
	"webpack-size.md":     "---\ntitle: Shrinking a webpack bundle\ndate: 2020-11-20\n---\nTree shaking and code splitting reduce the bundle size.\n",
	"node-env.md":         "---\ntitle: NODE_ENV on Windows\ndate: 2019-03-14\n---\nUse cross-env when 'NODE_ENV' is not recognized.\n",
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "swashbuckle-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary content directory holding files.
func TestContent(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, c := range files {
		if err := store.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ChatRequest is one request seen by a ChatBackend.
type ChatRequest struct {
	Path  string
	Query string
}

// ChatBackend is a fake answering service.
type ChatBackend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ChatRequest
	status   int
	body     string
}

// NewChatBackend starts a fake backend replying with status and body.
func NewChatBackend(t *testing.T, status int, body string) *ChatBackend {
	t.Helper()
	b := &ChatBackend{status: status, body: body}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// Reply changes the canned reply.
func (b *ChatBackend) Reply(status int, body string) {
	b.mu.Lock()
	b.status, b.body = status, body
	b.mu.Unlock()
}

// Requests returns a copy of every request seen so far.
func (b *ChatBackend) Requests() []ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ChatRequest(nil), b.requests...)
}

// Client returns a chat client pointed at the backend with default variants.
func (b *ChatBackend) Client() *chat.Client {
	return chat.NewClient(b.URL, nil, chat.WithLogger(Logger()))
}

func (b *ChatBackend) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	b.requests = append(b.requests, ChatRequest{Path: r.URL.Path, Query: req.Query})
	status, body := b.status, b.body
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
