package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/swashbuckle/internal/blog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced on /reindex.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *blog.Service, reload ReloadFunc, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, reload)

	r := chi.NewRouter()

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)
	r.Get("/search", h.Search)
	r.Get("/variants", h.Variants)
	r.Post("/ask", h.Ask)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Post("/reindex", h.Reindex)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
