package content

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/swashbuckle/internal/checksum"
	"github.com/starford/swashbuckle/internal/models"
	"github.com/starford/swashbuckle/internal/parser"
	"github.com/starford/swashbuckle/internal/storage"
)

// LoadOptions controls which sources become posts.
type LoadOptions struct {
	IncludeDrafts bool
}

// Load reads every Markdown source from store and builds an index.
// Sources that fail to read or parse are logged and skipped. A cover image
// that cannot be read is dropped from its post.
func Load(store storage.Provider, opts LoadOptions, logger *slog.Logger) (*Index, error) {
	metas, err := store.List("", ".md")
	if err != nil {
		return nil, fmt.Errorf("content: list sources: %w", err)
	}

	posts := make([]models.Post, 0, len(metas))
	routes := make(map[string]string, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("content: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		post, draft, err := ParsePost(m.Path, data)
		if err != nil {
			logger.Warn("content: parse failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if draft && !opts.IncludeDrafts {
			logger.Debug("content: skipping draft", slog.String("path", m.Path))
			continue
		}
		if prev, dup := routes[post.Route]; dup {
			logger.Warn("content: duplicate route",
				slog.String("route", post.Route),
				slog.String("path", m.Path),
				slog.String("kept", prev))
			continue
		}
		if post.Image != nil {
			if _, err := store.Read(post.Image.Source); err != nil {
				logger.Warn("content: cover image unreadable, omitted",
					slog.String("path", m.Path),
					slog.String("image", post.Image.Source),
					slog.String("error", err.Error()))
				post.Image = nil
			}
		}
		routes[post.Route] = m.Path
		posts = append(posts, post)
	}

	idx := New(posts)
	logger.Info("content: loaded", slog.Int("posts", idx.Len()), slog.Int("sources", len(metas)))
	return idx, nil
}

// ParsePost turns one Markdown source into a post. The second return value
// reports whether the source is marked as a draft.
func ParsePost(relPath string, data []byte) (models.Post, bool, error) {
	res, err := parser.Parse(relPath, data)
	if err != nil {
		return models.Post{}, false, err
	}

	p := models.Post{
		Route:       RouteFor(relPath),
		Slug:        res.Matter.Slug,
		Title:       res.Title,
		Description: strings.TrimSpace(res.Matter.Description),
		Excerpt:     res.Excerpt,
		Date:        res.Date,
		Body:        res.Body,
		SourcePath:  relPath,
		Checksum:    checksum.Sum(data),
	}
	if !p.Date.IsZero() {
		p.DisplayDate = p.Date.Format(models.DisplayDateLayout)
	}
	if img := strings.TrimSpace(res.Matter.FeaturedImage); img != "" {
		src := path.Clean(path.Join(path.Dir(filepath.ToSlash(relPath)), img))
		p.Image = &models.Image{Source: src, URL: p.Route + path.Base(src)}
	}
	if res.Matter.AttributionName != "" {
		p.Attribution = &models.Attribution{Name: res.Matter.AttributionName, Link: res.Matter.AttributionLink}
	}
	return p, res.Matter.Draft, nil
}

// RouteFor derives a post route from its source path relative to the content
// root: "a/b.md" becomes "/a/b/", "a/index.md" becomes "/a/".
func RouteFor(relPath string) string {
	p := filepath.ToSlash(relPath)
	p = strings.TrimSuffix(p, path.Ext(p))
	if path.Base(p) == "index" {
		p = path.Dir(p)
	}
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}
