// Package site generates the static blog from the content index.
package site

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/content"
	"github.com/starford/swashbuckle/internal/models"
	"github.com/starford/swashbuckle/internal/render"
	"github.com/starford/swashbuckle/internal/storage"
	"github.com/starford/swashbuckle/internal/widget"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/style.css
var baseCSS []byte

// Config holds the presentation settings shared by every page.
type Config struct {
	Title       string
	Description string
	// LiveReload injects an EventSource listener that reloads on rebuild.
	LiveReload bool
}

// Report summarises one build.
type Report struct {
	Posts    int
	Pages    int
	Images   int
	Removed  int
	Duration time.Duration
}

// ChatView is the data behind the chat page.
type ChatView struct {
	Query       string
	Variant     string
	Variants    []chat.Variant
	Suggestions []string
	HasResult   bool
	Answer      template.HTML
	HasSources  bool
	Sources     []card.Card
	Error       string
}

// Builder renders pages into an output tree.
type Builder struct {
	cfg    Config
	md     *render.Markdown
	src    storage.Provider
	out    storage.Provider
	logger *slog.Logger

	home *template.Template
	post *template.Template
	chat *template.Template

	variants []chat.Variant

	mu      sync.Mutex
	written map[string]struct{}
}

// NewBuilder parses the embedded templates. src is the content tree cover
// images are copied from; out receives the generated files.
func NewBuilder(cfg Config, md *render.Markdown, variants []chat.Variant, src, out storage.Provider, logger *slog.Logger) (*Builder, error) {
	if len(variants) == 0 {
		variants = chat.DefaultVariants()
	}
	b := &Builder{
		cfg:      cfg,
		md:       md,
		src:      src,
		out:      out,
		logger:   logger,
		variants: variants,
	}
	var err error
	if b.home, err = parsePage("home.html"); err != nil {
		return nil, err
	}
	if b.post, err = parsePage("post.html"); err != nil {
		return nil, err
	}
	if b.chat, err = parsePage("chat.html"); err != nil {
		return nil, err
	}
	return b, nil
}

func parsePage(name string) (*template.Template, error) {
	t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("site: parse %s: %w", name, err)
	}
	return t, nil
}

type pageData struct {
	Site  Config
	Cards []card.Card
	Post  *postView
	ChatView
}

type postView struct {
	models.Post
	Body template.HTML
}

// Build writes the whole site for idx. Files left over from the previous
// build of this Builder that were not rewritten are removed.
func (b *Builder) Build(ctx context.Context, idx *content.Index) (Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	var report Report
	written := make(map[string]struct{})
	write := func(p string, data []byte) error {
		if err := b.out.Write(p, data); err != nil {
			return fmt.Errorf("site: write %s: %w", p, err)
		}
		written[p] = struct{}{}
		return nil
	}

	posts, covers := b.prepare(idx.All())
	report.Posts = len(posts)

	var buf bytes.Buffer
	if err := b.home.ExecuteTemplate(&buf, "layout", pageData{Site: b.cfg, Cards: card.FromPosts(posts)}); err != nil {
		return report, fmt.Errorf("site: render home: %w", err)
	}
	if err := write("index.html", buf.Bytes()); err != nil {
		return report, err
	}
	report.Pages++

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := reserved[pagePath(p.Route)]; ok {
			b.logger.Warn("site: post route collides with a generated page, not rendered",
				slog.String("route", p.Route),
				slog.String("source", p.SourcePath))
			continue
		}
		body, err := b.md.Post(p.Body)
		if err != nil {
			return report, fmt.Errorf("site: %s: %w", p.Route, err)
		}
		buf.Reset()
		if err := b.post.ExecuteTemplate(&buf, "layout", pageData{Site: b.cfg, Post: &postView{Post: p, Body: body}}); err != nil {
			return report, fmt.Errorf("site: render %s: %w", p.Route, err)
		}
		if err := write(pagePath(p.Route), buf.Bytes()); err != nil {
			return report, err
		}
		report.Pages++

		if data, ok := covers[p.Route]; ok {
			if err := write(strings.TrimPrefix(p.Image.URL, "/"), data); err != nil {
				return report, err
			}
			report.Images++
		}
	}

	buf.Reset()
	if err := b.RenderChat(&buf, b.NewChatView()); err != nil {
		return report, err
	}
	if err := write("chat/index.html", buf.Bytes()); err != nil {
		return report, err
	}
	report.Pages++

	css, err := b.stylesheet()
	if err != nil {
		return report, err
	}
	if err := write("static/style.css", css); err != nil {
		return report, err
	}

	report.Removed = b.removeStale(written)
	b.written = written
	report.Duration = time.Since(start)

	b.logger.Info("site: built",
		slog.Int("posts", report.Posts),
		slog.Int("pages", report.Pages),
		slog.Int("images", report.Images),
		slog.Int("removed", report.Removed),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// removeStale deletes files from the previous build that are not in keep.
func (b *Builder) removeStale(keep map[string]struct{}) int {
	var stale []string
	for p := range b.written {
		if _, ok := keep[p]; !ok {
			stale = append(stale, p)
		}
	}
	sort.Strings(stale)
	for _, p := range stale {
		if err := b.out.Delete(p); err != nil {
			b.logger.Warn("site: remove stale failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	return len(stale)
}

// NewChatView returns the empty chat page state.
func (b *Builder) NewChatView() ChatView {
	v := ChatView{
		Variants:    b.variants,
		Suggestions: widget.Suggestions,
	}
	if len(b.variants) > 0 {
		v.Variant = b.variants[0].Name
	}
	return v
}

// RenderChat writes the chat page for v.
func (b *Builder) RenderChat(w io.Writer, v ChatView) error {
	if err := b.chat.ExecuteTemplate(w, "layout", pageData{Site: b.cfg, ChatView: v}); err != nil {
		return fmt.Errorf("site: render chat: %w", err)
	}
	return nil
}

func (b *Builder) stylesheet() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(baseCSS)
	buf.WriteString("\n/* syntax highlighting */\n")
	if err := b.md.WriteCSS(&buf); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	return buf.Bytes(), nil
}

// pagePath maps a route to its output file: "/a/b/" → "a/b/index.html".
// reserved holds output paths the builder writes regardless of content.
var reserved = map[string]struct{}{
	"index.html":       {},
	"chat/index.html":  {},
	"static/style.css": {},
}

// prepare reads every cover image up front so pages never link to a file
// that will not be written. Posts whose image is unreadable, or would land
// on a page path or another post's image, lose the image.
func (b *Builder) prepare(posts []models.Post) ([]models.Post, map[string][]byte) {
	taken := make(map[string]string, len(posts)+len(reserved))
	for p := range reserved {
		taken[p] = "site"
	}
	for _, p := range posts {
		if _, ok := reserved[pagePath(p.Route)]; !ok {
			taken[pagePath(p.Route)] = p.Route
		}
	}

	covers := make(map[string][]byte)
	for i := range posts {
		p := &posts[i]
		if p.Image == nil {
			continue
		}
		target := strings.TrimPrefix(p.Image.URL, "/")
		if owner, ok := taken[target]; ok {
			b.logger.Warn("site: cover image collides with another output, dropped",
				slog.String("route", p.Route),
				slog.String("image", p.Image.Source),
				slog.String("owner", owner))
			p.Image = nil
			continue
		}
		data, err := b.src.Read(p.Image.Source)
		if err != nil {
			b.logger.Warn("site: cover image missing",
				slog.String("route", p.Route),
				slog.String("image", p.Image.Source),
				slog.String("error", err.Error()))
			p.Image = nil
			continue
		}
		taken[target] = p.Route
		covers[p.Route] = data
	}
	return posts, covers
}

func pagePath(route string) string {
	return path.Join(strings.Trim(route, "/"), "index.html")
}
