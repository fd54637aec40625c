// Package api implements the blog JSON API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/swashbuckle/internal/apperr"
)

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrEmptyQuery):
		return http.StatusBadRequest, "query is required"
	case errors.Is(err, apperr.ErrUnknownVariant):
		return http.StatusBadRequest, "unknown variant"
	case errors.Is(err, apperr.ErrMalformedResponse):
		return http.StatusBadGateway, "chat service returned a malformed response"
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway, "chat service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError logs 5xx failures with attrs and writes the mapped error body.
func writeError(w http.ResponseWriter, err error, attrs ...any) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", append(attrs, slog.String("error", err.Error()))...)
	}
	writeJSON(w, status, errorBody(msg))
}

// AuthMiddleware guards admin routes with a static bearer token. When
// enabled is false every request passes.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="swashbuckle"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
