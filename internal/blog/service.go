// Package blog coordinates the content index, search, the chat backend and
// the site builder behind one service used by the HTTP API, the MCP server
// and the terminal client.
package blog

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/swashbuckle/internal/apperr"
	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/checksum"
	"github.com/starford/swashbuckle/internal/content"
	"github.com/starford/swashbuckle/internal/index"
	"github.com/starford/swashbuckle/internal/models"
	"github.com/starford/swashbuckle/internal/render"
	"github.com/starford/swashbuckle/internal/search"
	"github.com/starford/swashbuckle/internal/site"
	"github.com/starford/swashbuckle/internal/storage"
)

// PostDetail is the full representation of a post.
type PostDetail struct {
	Route       string        `json:"route"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Excerpt     string        `json:"excerpt"`
	Date        *time.Time    `json:"date,omitempty"`
	DisplayDate string        `json:"display_date,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	SourcePath  string        `json:"source_path"`
	Markdown    string        `json:"markdown"`
	HTML        template.HTML `json:"html"`
	ETag        string        `json:"-"`
}

// Answer is a rendered chat reply. Cited holds the routes exactly as the
// backend returned them; Sources only the ones that resolved to a post.
type Answer struct {
	Query    string        `json:"query"`
	Variant  string        `json:"variant"`
	Response string        `json:"response"`
	HTML     template.HTML `json:"html"`
	Cited    []string      `json:"cited"`
	Sources  []card.Card   `json:"sources"`
}

// HasSources reports whether the backend cited anything at all.
func (a *Answer) HasSources() bool { return len(a.Cited) > 0 }

// ReloadReport summarises a reload pass.
type ReloadReport struct {
	Posts int              `json:"posts"`
	Sync  index.SyncReport `json:"sync"`
	Site  site.Report      `json:"site"`
}

// Rebuilder is implemented by search engines that hold their own copy of
// the posts.
type Rebuilder interface {
	Rebuild(posts []models.Post) error
}

// Option configures a Service.
type Option func(*Service)

// WithIndex persists posts in db on every reload. db also serves search
// when no other engine is set.
func WithIndex(db index.PostIndex) Option {
	return func(s *Service) {
		s.db = db
	}
}

// WithSearcher sets the search engine.
func WithSearcher(sr search.Searcher) Option {
	return func(s *Service) {
		s.searcher = sr
	}
}

// WithChat sets the chat backend client.
func WithChat(c *chat.Client) Option {
	return func(s *Service) {
		s.chat = c
	}
}

// WithRenderer sets the Markdown renderer.
func WithRenderer(md *render.Markdown) Option {
	return func(s *Service) {
		s.md = md
	}
}

// WithBuilder regenerates the static site on every reload.
func WithBuilder(b *site.Builder) Option {
	return func(s *Service) {
		s.builder = b
	}
}

// WithLoadOptions controls which sources become posts.
func WithLoadOptions(o content.LoadOptions) Option {
	return func(s *Service) {
		s.loadOpts = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service is safe for concurrent use. Reloads are serialised; readers
// always see a complete index.
type Service struct {
	store    storage.Provider
	holder   *content.Holder
	db       index.PostIndex
	searcher search.Searcher
	chat     *chat.Client
	md       *render.Markdown
	builder  *site.Builder
	loadOpts content.LoadOptions
	logger   *slog.Logger

	reloadMu sync.Mutex
}

// NewService creates a service reading sources from store. The index starts
// empty until Reload is called.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		holder: content.NewHolder(content.New(nil)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.md == nil {
		s.md = render.New(render.Options{})
	}
	if s.searcher == nil && s.db != nil {
		s.searcher = s.db
	}
	return s
}

// Index returns the current content index.
func (s *Service) Index() *content.Index {
	return s.holder.Load()
}

// Lookup resolves routes against the current index.
func (s *Service) Lookup() card.Lookup {
	return s.holder
}

// Reload re-reads every source, swaps the index, syncs persistence and
// search, and rebuilds the site.
func (s *Service) Reload(ctx context.Context) (ReloadReport, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var report ReloadReport
	idx, err := content.Load(s.store, s.loadOpts, s.logger)
	if err != nil {
		return report, err
	}
	s.holder.Store(idx)
	report.Posts = idx.Len()

	if s.db != nil {
		if report.Sync, err = index.Sync(s.db, idx, s.logger); err != nil {
			return report, err
		}
	}
	if rb, ok := s.searcher.(Rebuilder); ok {
		if err := rb.Rebuild(idx.All()); err != nil {
			return report, fmt.Errorf("blog: rebuild search: %w", err)
		}
	}
	if s.builder != nil {
		if report.Site, err = s.builder.Build(ctx, idx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// ListPosts returns every post as a card, newest first.
func (s *Service) ListPosts(_ context.Context) []card.Card {
	return card.FromPosts(s.holder.Load().All())
}

// GetPost returns the post at route.
func (s *Service) GetPost(_ context.Context, route string) (*PostDetail, error) {
	p, ok := s.holder.FindByRoute(route)
	if !ok {
		return nil, fmt.Errorf("blog: post %q: %w", route, apperr.ErrNotFound)
	}
	html, err := s.md.Post(p.Body)
	if err != nil {
		return nil, err
	}
	d := &PostDetail{
		Route:       p.Route,
		Title:       p.Title,
		Description: p.Description,
		Excerpt:     p.Excerpt,
		DisplayDate: p.DisplayDate,
		SourcePath:  p.SourcePath,
		Markdown:    p.Body,
		HTML:        html,
		ETag:        checksum.ETag(p.Checksum),
	}
	if !p.Date.IsZero() {
		date := p.Date
		d.Date = &date
	}
	if p.Image != nil {
		d.ImageURL = p.Image.URL
	}
	return d, nil
}

// Search runs query against the configured engine.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.ErrEmptyQuery
	}
	if s.searcher == nil {
		return nil, errors.New("blog: no search engine configured")
	}
	hits, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return hits, nil
}

// Variants returns the chat presets in order.
func (s *Service) Variants() []chat.Variant {
	if s.chat == nil {
		return chat.DefaultVariants()
	}
	return s.chat.Variants()
}

// Ask forwards query to the chat backend and renders the reply. An empty
// variant selects the default preset.
func (s *Service) Ask(ctx context.Context, variant, query string) (*Answer, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("blog: %w: chat backend not configured", apperr.ErrUpstream)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.ErrEmptyQuery
	}
	if variant == "" {
		variant = s.chat.DefaultVariant()
	}

	resp, err := s.chat.Ask(ctx, variant, query)
	if err != nil {
		return nil, err
	}
	return s.RenderAnswer(query, variant, resp)
}

// RenderAnswer turns a backend reply into an Answer against the current index.
func (s *Service) RenderAnswer(query, variant string, resp *chat.Response) (*Answer, error) {
	html, err := s.md.Answer(resp.Response)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Query:    query,
		Variant:  variant,
		Response: resp.Response,
		HTML:     html,
		Cited:    resp.Sources,
		Sources:  card.Resolve(s.holder, resp.Sources),
	}, nil
}

// Builder returns the site builder, if any.
func (s *Service) Builder() *site.Builder {
	return s.builder
}
