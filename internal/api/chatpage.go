package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/starford/swashbuckle/internal/blog"
)

// ChatPage serves POST /chat/: the form fallback of the ask widget. It
// renders the same page as the static chat/index.html with the answer or
// error filled in.
type ChatPage struct {
	svc *blog.Service
}

// NewChatPage creates the chat form handler.
func NewChatPage(svc *blog.Service) *ChatPage {
	return &ChatPage{svc: svc}
}

func (c *ChatPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b := c.svc.Builder()
	if b == nil {
		http.Error(w, "chat page unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	view := b.NewChatView()
	view.Query = r.PostForm.Get("query")
	if v := r.PostForm.Get("variant"); v != "" {
		view.Variant = v
	}

	status := http.StatusOK
	ans, err := c.svc.Ask(r.Context(), view.Variant, view.Query)
	if err != nil {
		status, view.Error = statusFor(err)
		view.Error = "Arr, that didn't work: " + view.Error + "."
	} else {
		view.HasResult = true
		view.Answer = ans.HTML
		view.HasSources = ans.HasSources()
		view.Sources = ans.Sources
	}

	var buf bytes.Buffer
	if err := b.RenderChat(&buf, view); err != nil {
		slog.Error("render chat page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
