package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/swashbuckle/internal/blog"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/render"
	"github.com/starford/swashbuckle/internal/site"
	"github.com/starford/swashbuckle/internal/storage"
	"github.com/starford/swashbuckle/internal/testutil"
)

const answerBody = `{"response":"Use **cross-env**.","sources":["/node-env/","/gone/"]}`

// testEnv sets up a content tree, SQLite DB, fake chat backend, service and
// router. A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (*blog.Service, http.Handler, *testutil.ChatBackend) {
	t.Helper()
	backend := testutil.NewChatBackend(t, http.StatusOK, answerBody)
	_, store := testutil.TestContent(t, testutil.Posts)

	out, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	md := render.New(render.Options{})
	builder, err := site.NewBuilder(site.Config{Title: "Test"}, md, chat.DefaultVariants(), store, out, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}

	svc := blog.NewService(store,
		blog.WithIndex(testutil.TestDB(t)),
		blog.WithChat(backend.Client()),
		blog.WithRenderer(md),
		blog.WithBuilder(builder),
		blog.WithLogger(testutil.Logger()),
	)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc, NewRouter(svc, nil, authToken != "", authToken, nil), backend
}

func do(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListPosts(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/posts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp PostListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range resp.Posts {
		got = append(got, c.Route)
	}
	want := []string{"/jest-mocks/", "/webpack-size/", "/node-env/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d", resp.Total)
	}
}

func TestGetPost(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/posts/jest-mocks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var post blog.PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Route != "/jest-mocks/" || post.Title != "Automatic mocks in Jest" {
		t.Errorf("post = %+v", post)
	}
	if !strings.Contains(string(post.HTML), "<code>jest.mock</code>") {
		t.Errorf("html = %q", post.HTML)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
}

func TestGetPostEncodedAndTrailingSlash(t *testing.T) {
	_, router, _ := testEnv(t, "")
	for _, target := range []string{"/posts/node-env/", "/posts/" + url.PathEscape("node-env")} {
		if w := do(router, http.MethodGet, target, nil); w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, w.Code)
		}
	}
}

func TestGetPostNotModified(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/posts/node-env", nil)
	etag := w.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/posts/node-env", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", w.Code)
	}
}

func TestGetPostNotFound(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(router, http.MethodGet, "/posts/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearch(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/search?q=bundle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Route != "/webpack-size/" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, router, _ := testEnv(t, "")
	if w := do(router, http.MethodGet, "/search?q=%20", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVariants(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(router, http.MethodGet, "/variants", nil)
	var resp VariantsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if diff := cmp.Diff(chat.DefaultVariants(), resp.Variants); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}
}

func TestAsk(t *testing.T) {
	_, router, backend := testEnv(t, "")

	body, _ := json.Marshal(AskRequest{Query: "  NODE_ENV on windows?  ", Variant: "more-context"})
	w := do(router, http.MethodPost, "/ask", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var ans blog.Answer
	_ = json.Unmarshal(w.Body.Bytes(), &ans)
	if ans.Response != "Use **cross-env**." {
		t.Errorf("response = %q", ans.Response)
	}
	if !strings.Contains(string(ans.HTML), "<strong>cross-env</strong>") {
		t.Errorf("html = %q", ans.HTML)
	}
	// Unknown source routes are dropped.
	if len(ans.Sources) != 1 || ans.Sources[0].Title != "NODE_ENV on Windows" {
		t.Errorf("sources = %+v", ans.Sources)
	}

	want := []testutil.ChatRequest{{Path: "/chat-more-context", Query: "NODE_ENV on windows?"}}
	if diff := cmp.Diff(want, backend.Requests()); diff != "" {
		t.Errorf("upstream requests mismatch (-want +got):\n%s", diff)
	}
}

func TestAskErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   int
		reply  string
	}{
		{"invalid json", `{`, http.StatusBadRequest, http.StatusOK, answerBody},
		{"empty query", `{"query":"   "}`, http.StatusBadRequest, http.StatusOK, answerBody},
		{"unknown variant", `{"query":"hi","variant":"nope"}`, http.StatusBadRequest, http.StatusOK, answerBody},
		{"upstream error", `{"query":"hi"}`, http.StatusBadGateway, http.StatusInternalServerError, `oops`},
		{"malformed reply", `{"query":"hi"}`, http.StatusBadGateway, http.StatusOK, `{"answer":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router, backend := testEnv(t, "")
			backend.Reply(tt.code, tt.reply)
			w := do(router, http.MethodPost, "/ask", []byte(tt.body))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			var e errResponse
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Error == "" {
				t.Errorf("error body = %s", w.Body.String())
			}
		})
	}
}

func TestReindexAuth(t *testing.T) {
	_, router, _ := testEnv(t, "secret")

	if w := do(router, http.MethodPost, "/reindex", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/reindex", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var report blog.ReloadReport
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Posts != 3 || report.Sync.Unchanged != 3 {
		t.Errorf("report = %+v", report)
	}

	// Reads stay public in token mode.
	if w := do(router, http.MethodGet, "/posts", nil); w.Code != http.StatusOK {
		t.Errorf("GET /posts status = %d", w.Code)
	}
}

func TestReindexUsesReloadFunc(t *testing.T) {
	svc, _, _ := testEnv(t, "")
	var calls int
	router := NewRouter(svc, func(ctx context.Context) (blog.ReloadReport, error) {
		calls++
		return svc.Reload(ctx)
	}, false, "", nil)

	if w := do(router, http.MethodPost, "/reindex", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if calls != 1 {
		t.Errorf("reload calls = %d, want 1", calls)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tests := []struct {
		name    string
		enabled bool
		header  string
		want    int
	}{
		{"disabled", false, "", http.StatusNoContent},
		{"missing", true, "", http.StatusUnauthorized},
		{"wrong", true, "Bearer nope", http.StatusUnauthorized},
		{"basic", true, "Basic secret", http.StatusUnauthorized},
		{"valid", true, "Bearer secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			AuthMiddleware(tt.enabled, "secret")(ok).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func postForm(h http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatPage(t *testing.T) {
	svc, _, backend := testEnv(t, "")
	page := NewChatPage(svc)

	w := postForm(page, url.Values{"query": {"windows env"}, "variant": {"stricter-prompt"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	html := w.Body.String()
	for _, want := range []string{"<strong>cross-env</strong>", "NODE_ENV on Windows", "Sources", `value="stricter-prompt" checked`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if reqs := backend.Requests(); len(reqs) != 1 || reqs[0].Path != "/chat-stricter" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestChatPageNoSourcesHidesHeading(t *testing.T) {
	svc, _, backend := testEnv(t, "")
	backend.Reply(http.StatusOK, `{"response":"Ahoy.","sources":[]}`)

	w := postForm(NewChatPage(svc), url.Values{"query": {"hello"}})
	if strings.Contains(w.Body.String(), "<h2>Sources</h2>") {
		t.Error("sources heading rendered for empty sources")
	}
}

func TestChatPageUnresolvedSourcesShowHeading(t *testing.T) {
	svc, _, backend := testEnv(t, "")
	backend.Reply(http.StatusOK, `{"response":"Ahoy.","sources":["/unknown/"]}`)

	w := postForm(NewChatPage(svc), url.Values{"query": {"hello"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<h2>Sources</h2>") {
		t.Error("sources heading missing for unresolved sources")
	}
	if strings.Contains(w.Body.String(), `href="/unknown/"`) {
		t.Error("unresolved source rendered as a card")
	}
}

func TestChatPageUpstreamFailure(t *testing.T) {
	svc, _, backend := testEnv(t, "")
	backend.Reply(http.StatusServiceUnavailable, "down")

	w := postForm(NewChatPage(svc), url.Values{"query": {"hello"}})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if !strings.Contains(w.Body.String(), `role="alert"`) {
		t.Error("error alert not rendered")
	}
}
