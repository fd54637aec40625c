package internal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/swashbuckle/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Content.Path = filepath.Join(dir, "content")
	cfg.Site.OutputDir = filepath.Join(dir, "public")
	cfg.SQLite.Path = filepath.Join(dir, "blog.db")
	for p, c := range testutil.Posts {
		full := filepath.Join(cfg.Content.Path, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(c), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	if err := Build(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, p := range []string{"index.html", "jest-mocks/index.html", "node-env/index.html", "chat/index.html", "static/style.css"} {
		if _, err := os.Stat(filepath.Join(cfg.Site.OutputDir, filepath.FromSlash(p))); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	home, _ := os.ReadFile(filepath.Join(cfg.Site.OutputDir, "index.html"))
	if strings.Contains(string(home), "EventSource") {
		t.Error("build output carries the live-reload script")
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	if err := Build(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}

func TestAskOnce(t *testing.T) {
	backend := testutil.NewChatBackend(t, http.StatusOK, `{"response":"Use cross-env.","sources":["/node-env/"]}`)
	cfg := testConfig(t)
	cfg.Chat.BaseURL = backend.URL

	var out bytes.Buffer
	err := Ask(context.Background(), "windows env?", "stricter-prompt", true,
		WithConfig(cfg), WithLogOutput(io.Discard), WithOutput(&out))
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(out.String(), "NODE_ENV on Windows") {
		t.Errorf("output = %q", out.String())
	}
	reqs := backend.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/chat-stricter" || reqs[0].Query != "windows env?" {
		t.Errorf("requests = %+v", reqs)
	}
}
