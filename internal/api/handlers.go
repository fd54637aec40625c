package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/swashbuckle/internal/blog"
	"github.com/starford/swashbuckle/internal/checksum"
)

// ReloadFunc re-reads the content tree. The server wraps blog.Service.Reload
// so that a reindex also notifies live-reload clients.
type ReloadFunc func(ctx context.Context) (blog.ReloadReport, error)

// Handler holds API route handlers.
type Handler struct {
	svc    *blog.Service
	reload ReloadFunc
}

// NewHandler creates a new Handler. A nil reload falls back to svc.Reload.
func NewHandler(svc *blog.Service, reload ReloadFunc) *Handler {
	if reload == nil {
		reload = svc.Reload
	}
	return &Handler{svc: svc, reload: reload}
}

// postRoute extracts the post route from the URL (everything after /api/posts/).
// Supports encoded slashes (e.g. 2021%2Fwebpack).
func postRoute(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return "/"
	}
	return "/" + raw + "/"
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts as citation cards, newest first
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	cards := h.svc.ListPosts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": cards,
		"total": len(cards),
	})
}

// GetPost handles GET /api/posts/*.
//
//	@Summary		Get a single post by route
//	@Tags			posts
//	@Produce		json
//	@Param			route	path		string	true	"Post route without slashes"
//	@Success		200		{object}	blog.PostDetail
//	@Success		304		"Not modified"
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{route} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	route := postRoute(r)
	post, err := h.svc.GetPost(r.Context(), route)
	if err != nil {
		writeError(w, err, slog.String("route", route))
		return
	}
	w.Header().Set("ETag", post.ETag)
	if checksum.Match(r.Header.Get("If-None-Match"), post.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Variants handles GET /api/variants.
//
//	@Summary		List chat variants in selection order
//	@Tags			chat
//	@Produce		json
//	@Success		200	{object}	VariantsResponse
//	@Router			/variants [get]
func (h *Handler) Variants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"variants": h.svc.Variants(),
	})
}

// Ask handles POST /api/ask.
//
//	@Summary		Ask the blog a question
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	blog.Answer
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ans, err := h.svc.Ask(r.Context(), req.Variant, req.Query)
	if err != nil {
		writeError(w, err, slog.String("variant", req.Variant))
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// Reindex handles POST /api/reindex.
//
//	@Summary		Reload content, resync the index and rebuild the site
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	blog.ReloadReport
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := h.reload(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
