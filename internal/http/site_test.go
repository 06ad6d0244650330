package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blogfront/internal/apiclient"
	"github.com/goliatone/go-blogfront/internal/blogapi"
	"github.com/goliatone/go-blogfront/internal/markdown"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

type upstream struct {
	mu      sync.Mutex
	auth    []string
	server  *httptest.Server
	handler http.HandlerFunc
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{handler: handler}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.auth = append(u.auth, r.Header.Get("Authorization"))
		u.mu.Unlock()
		u.handler(w, r)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) lastAuth() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.auth) == 0 {
		return ""
	}
	return u.auth[len(u.auth)-1]
}

func articleBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/articles/1", "/api/articles/slug/hello":
		_, _ = w.Write([]byte(`{"code":200,"message":"ok","timestamp":"2024-03-14T15:09:26Z","path":"` + r.URL.Path + `","data":{"id":1,"title":"Hello","slug":"hello","content":"# Hello\n\n::: tip [Note]\nBody\n:::\n\n<script>x()</script>"}}`))
	case "/api/articles":
		_, _ = w.Write([]byte(`{"items":[{"id":1,"title":"Hello","slug":"hello","content":"secret draft"}],"total":1,"page":1,"pageSize":10}`))
	case "/api/articles/2":
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Article not found","error":"ARTICLE_NOT_FOUND"}`))
	}
}

func setupSiteAPI(t *testing.T, handler http.HandlerFunc) (*http.ServeMux, *upstream) {
	t.Helper()
	u := newUpstream(t, handler)
	client, err := apiclient.New(apiclient.Config{BaseURL: u.server.URL + "/api"},
		apiclient.WithCredentials(apiclient.Credentials{Session: apiclient.ContextTokenStore{}}))
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	blog, err := blogapi.NewService(client, nil)
	if err != nil {
		t.Fatalf("blogapi.NewService: %v", err)
	}
	renderer, err := markdown.NewService(markdown.Config{})
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}

	api := NewSiteAPI(WithArticleSource(blog), WithRenderer(renderer))
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}
	return mux, u
}

func doRequest(t *testing.T, mux *http.ServeMux, req *http.Request, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSiteAPI_RenderMarkdown(t *testing.T) {
	mux, _ := setupSiteAPI(t, articleBackend)

	body, _ := json.Marshal(map[string]any{"markdown": "# Title\n\n## Title\n\n```go [main.go]\npackage main\n```\n\n<script>alert(1)</script>"})
	req := httptest.NewRequest(http.MethodPost, "/api/markdown/render", bytes.NewReader(body))
	rec := doRequest(t, mux, req, http.StatusOK)

	var got renderResponse
	decodeJSONBody(t, rec, &got)
	if len(got.Headings) != 2 || got.Headings[1].ID != got.Headings[0].ID+"-1" {
		t.Fatalf("unexpected headings %+v", got.Headings)
	}
	if !strings.Contains(got.HTML, `<div class="code-block-title">main.go</div>`) {
		t.Fatalf("expected code block title in %s", got.HTML)
	}
	if strings.Contains(got.HTML, "<script") {
		t.Fatalf("preview output must be sanitised: %s", got.HTML)
	}
}

func TestSiteAPI_RenderRejectsBadBody(t *testing.T) {
	mux, _ := setupSiteAPI(t, articleBackend)

	for name, body := range map[string]string{
		"not json":      "{",
		"unknown field": `{"markdown":"x","theme":"dark"}`,
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/markdown/render", strings.NewReader(body))
			doRequest(t, mux, req, http.StatusBadRequest)
		})
	}
}

func TestSiteAPI_ArticleByID(t *testing.T) {
	mux, u := setupSiteAPI(t, articleBackend)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/1", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-token"})
	rec := doRequest(t, mux, req, http.StatusOK)

	var got struct {
		Article  blogapi.Article      `json:"article"`
		HTML     string               `json:"html"`
		Headings []interfaces.Heading `json:"headings"`
	}
	decodeJSONBody(t, rec, &got)
	if got.Article.Slug != "hello" || len(got.Headings) != 1 {
		t.Fatalf("unexpected article response %+v", got)
	}
	if !strings.Contains(got.HTML, `data-title="Note"`) || strings.Contains(got.HTML, "<script") {
		t.Fatalf("expected rendered, sanitised html, got %s", got.HTML)
	}
	if u.lastAuth() != "Bearer cookie-token" {
		t.Fatalf("expected cookie token forwarded upstream, got %q", u.lastAuth())
	}
}

func TestSiteAPI_ArticleBySlugForwardsAuthorization(t *testing.T) {
	mux, u := setupSiteAPI(t, articleBackend)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/slug/hello", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	doRequest(t, mux, req, http.StatusOK)
	if u.lastAuth() != "Bearer header-token" {
		t.Fatalf("expected header token forwarded upstream, got %q", u.lastAuth())
	}

	anon := httptest.NewRequest(http.MethodGet, "/api/articles/slug/hello", nil)
	doRequest(t, mux, anon, http.StatusOK)
	if u.lastAuth() != "" {
		t.Fatalf("anonymous requests must not carry a token, got %q", u.lastAuth())
	}
}

func TestSiteAPI_ArticleList(t *testing.T) {
	mux, _ := setupSiteAPI(t, articleBackend)

	rec := doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/articles?page=1", nil), http.StatusOK)
	var page blogapi.Page[blogapi.Article]
	decodeJSONBody(t, rec, &page)
	if len(page.Items) != 1 || page.Items[0].Content != "" {
		t.Fatalf("expected list without bodies, got %+v", page)
	}

	rec = doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/articles?content=true", nil), http.StatusOK)
	decodeJSONBody(t, rec, &page)
	if page.Items[0].Content == "" {
		t.Fatalf("expected bodies when requested")
	}

	doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/articles?sort=random", nil), http.StatusBadRequest)
}

func TestSiteAPI_UpstreamErrors(t *testing.T) {
	mux, _ := setupSiteAPI(t, articleBackend)

	cases := []struct {
		name      string
		path      string
		status    int
		kind      string
		retryable bool
	}{
		{"not found", "/api/articles/9", http.StatusNotFound, "article_not_found", false},
		{"unavailable", "/api/articles/2", http.StatusServiceUnavailable, "server_error", true},
		{"bad id", "/api/articles/abc", http.StatusBadRequest, "bad_request", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, mux, httptest.NewRequest(http.MethodGet, tc.path, nil), tc.status)
			var got errorResponse
			decodeJSONBody(t, rec, &got)
			if got.Error != tc.kind || got.Retryable != tc.retryable {
				t.Fatalf("unexpected error body %+v", got)
			}
			if tc.status != http.StatusBadRequest && !strings.HasPrefix(got.RequestID, "req_") {
				t.Fatalf("expected upstream request id, got %q", got.RequestID)
			}
		})
	}
}

func TestMapError(t *testing.T) {
	network := apiclient.NetworkError("/articles", errors.New("dial tcp: refused"), fixedTime())
	status, body := mapError(network)
	if status != http.StatusBadGateway || body.Error != "network_error" || !body.Retryable {
		t.Fatalf("expected network errors to map to 502, got %d %+v", status, body)
	}

	validation := goerrors.New("bad input", goerrors.CategoryValidation)
	if status, _ := mapError(validation); status != http.StatusBadRequest {
		t.Fatalf("expected validation errors to map to 400, got %d", status)
	}

	if status, _ := mapError(context.DeadlineExceeded); status != http.StatusInternalServerError {
		t.Fatalf("expected unknown errors to map to 500, got %d", status)
	}
}

func TestServiceUnavailableWithoutDependencies(t *testing.T) {
	handler, err := NewSiteAPI(WithBasePath("/site")).Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/site/articles/1", nil),
		httptest.NewRequest(http.MethodPost, "/site/markdown/render", strings.NewReader(`{"markdown":"x"}`)),
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503 for %s, got %d", req.URL.Path, rec.Code)
		}
	}
}

func TestJoinPath(t *testing.T) {
	cases := map[string][2]string{
		"/api/articles": {"api/", "/articles"},
		"/articles":     {"/", "articles"},
		"/api":          {" /api ", ""},
		"/":             {"", ""},
	}
	for want, in := range cases {
		if got := joinPath(in[0], in[1]); got != want {
			t.Fatalf("joinPath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	if got := bearerToken(req); got != "" {
		t.Fatalf("non bearer schemes are ignored, got %q", got)
	}
	req.Header.Set("Authorization", "bearer  tok ")
	if got := bearerToken(req); got != "tok" {
		t.Fatalf("expected case-insensitive bearer scheme, got %q", got)
	}
}

func fixedTime() time.Time {
	return time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
}

func TestSiteAPI_RetriesRetryableLoads(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	flaky := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		articleBackend(w, r)
	}
	u := newUpstream(t, flaky)
	client, err := apiclient.New(apiclient.Config{BaseURL: u.server.URL + "/api"})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	blog, err := blogapi.NewService(client, nil)
	if err != nil {
		t.Fatalf("blogapi.NewService: %v", err)
	}
	renderer, err := markdown.NewService(markdown.Config{})
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	handler, err := NewSiteAPI(
		WithArticleSource(blog),
		WithRenderer(renderer),
		WithRetry(apiclient.RetryPolicy{MaxAttempts: 2}, nil),
	).Handler()
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/articles/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to recover, got %d (%s)", rec.Code, rec.Body.String())
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected two upstream calls, got %d", calls)
	}
}

func TestSiteAPI_LocalDocuments(t *testing.T) {
	source := fstest.MapFS{
		"posts/hello.md": &fstest.MapFile{
			Data:    []byte("---\ntitle: Local\n---\n# Local\n\n::: tip [Note: read this]\nBody\n:::\n"),
			ModTime: fixedTime(),
		},
	}
	docs, err := markdown.NewService(markdown.Config{Parser: interfaces.ParseOptions{Sanitize: true}}, markdown.WithSourceFS(source))
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	mux := http.NewServeMux()
	if err := NewSiteAPI(WithDocumentSource(docs)).Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}

	rec := doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/local/posts/hello.md", nil), http.StatusOK)
	var got documentResponse
	decodeJSONBody(t, rec, &got)
	if got.Path != "posts/hello.md" || got.FrontMatter.Title != "Local" {
		t.Fatalf("unexpected document %+v", got)
	}
	if !strings.Contains(got.HTML, `data-title="Note: read this"`) || len(got.Headings) != 1 {
		t.Fatalf("expected rendered local article, got %s %+v", got.HTML, got.Headings)
	}

	doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/local/posts/missing.md", nil), http.StatusNotFound)
}

func TestSiteAPI_LocalDocumentsUnconfigured(t *testing.T) {
	docs, err := markdown.NewService(markdown.Config{})
	if err != nil {
		t.Fatalf("markdown.NewService: %v", err)
	}
	mux := http.NewServeMux()
	if err := NewSiteAPI(WithDocumentSource(docs)).Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}
	doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/local/a.md", nil), http.StatusServiceUnavailable)

	bare := http.NewServeMux()
	if err := NewSiteAPI().Register(bare); err != nil {
		t.Fatalf("register api: %v", err)
	}
	doRequest(t, bare, httptest.NewRequest(http.MethodGet, "/api/local/a.md", nil), http.StatusServiceUnavailable)
}
