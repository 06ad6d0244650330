package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-blogfront/internal/apiclient"
	"github.com/goliatone/go-blogfront/internal/blogapi"
	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/internal/markdown"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// TokenCookie is the cookie the site adapter reads bearer tokens from.
const TokenCookie = "blog_token"

const defaultMaxBodyBytes = 1 << 20

// ArticleSource is the subset of the blog API the site adapter reads.
type ArticleSource interface {
	ListArticles(ctx context.Context, params blogapi.ListParams) (blogapi.Page[blogapi.Article], error)
	GetArticle(ctx context.Context, id int64) (*blogapi.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*blogapi.Article, error)
}

// Renderer turns article Markdown into HTML.
type Renderer interface {
	Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) (*interfaces.RenderResult, error)
}

// DocumentSource loads and renders Markdown articles kept next to the site.
type DocumentSource interface {
	Load(ctx context.Context, path string) (*interfaces.Document, error)
}

var (
	_ ArticleSource  = (*blogapi.Service)(nil)
	_ DocumentSource = (*markdown.Service)(nil)
)

// SiteAPI serves rendered articles and the Markdown preview endpoint.
type SiteAPI struct {
	basePath     string
	articles     ArticleSource
	renderer     Renderer
	documents    DocumentSource
	render       interfaces.ParseOptions
	logger       interfaces.Logger
	maxBodyBytes int64
	retry        apiclient.RetryPolicy
	backoff      apiclient.Backoff
	now          func() time.Time
}

// SiteOption mutates the SiteAPI configuration.
type SiteOption func(*SiteAPI)

// NewSiteAPI constructs a SiteAPI mounted under /api by default.
func NewSiteAPI(opts ...SiteOption) *SiteAPI {
	api := &SiteAPI{
		basePath:     "/api",
		render:       interfaces.ParseOptions{Sanitize: true},
		logger:       logging.NoOp(),
		maxBodyBytes: defaultMaxBodyBytes,
		retry:        apiclient.RetryPolicy{MaxAttempts: 1},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base path (defaults to "/api").
func WithBasePath(path string) SiteOption {
	return func(api *SiteAPI) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithArticleSource wires the blog API.
func WithArticleSource(source ArticleSource) SiteOption {
	return func(api *SiteAPI) {
		api.articles = source
	}
}

// WithRenderer wires the Markdown renderer.
func WithRenderer(renderer Renderer) SiteOption {
	return func(api *SiteAPI) {
		api.renderer = renderer
	}
}

// WithDocumentSource wires local articles served under {base}/local/.
func WithDocumentSource(source DocumentSource) SiteOption {
	return func(api *SiteAPI) {
		api.documents = source
	}
}

// WithRenderOptions sets the options article bodies are rendered with.
func WithRenderOptions(opts interfaces.ParseOptions) SiteOption {
	return func(api *SiteAPI) {
		api.render = opts
	}
}

// WithLogger attaches the http module logger.
func WithLogger(logger interfaces.Logger) SiteOption {
	return func(api *SiteAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithMaxBodyBytes bounds preview request bodies.
func WithMaxBodyBytes(limit int64) SiteOption {
	return func(api *SiteAPI) {
		if limit > 0 {
			api.maxBodyBytes = limit
		}
	}
}

// WithRetry re-issues article loads that fail with a retryable error.
func WithRetry(policy apiclient.RetryPolicy, backoff apiclient.Backoff) SiteOption {
	return func(api *SiteAPI) {
		api.retry = policy
		api.backoff = backoff
	}
}

// Register attaches the site endpoints to the provided mux.
func (api *SiteAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: site api is nil")
	}

	base := joinPath(api.basePath, "")
	articles := joinPath(base, "articles")

	mux.Handle("POST "+joinPath(base, "markdown/render"), api.wrap(api.handleRender))
	mux.Handle("GET "+articles, api.wrap(api.handleArticleList))
	mux.Handle("GET "+articles+"/{id}", api.wrap(api.handleArticleGet))
	mux.Handle("GET "+articles+"/slug/{slug}", api.wrap(api.handleArticleBySlug))
	mux.Handle("GET "+joinPath(base, "local")+"/{path...}", api.wrap(api.handleLocalDocument))
	return nil
}

type renderPayload struct {
	Markdown  string `json:"markdown"`
	HardWraps bool   `json:"hard_wraps,omitempty"`
}

type renderResponse struct {
	HTML     string               `json:"html"`
	Headings []interfaces.Heading `json:"headings"`
}

type articleResponse struct {
	Article  *blogapi.Article     `json:"article"`
	HTML     string               `json:"html"`
	Headings []interfaces.Heading `json:"headings"`
}

type documentResponse struct {
	Path         string                 `json:"path"`
	FrontMatter  interfaces.FrontMatter `json:"front_matter"`
	HTML         string                 `json:"html"`
	Headings     []interfaces.Heading   `json:"headings"`
	LastModified time.Time              `json:"last_modified"`
}

func (api *SiteAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	if api.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload renderPayload
	if err := decodeJSON(r, &payload, api.maxBodyBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "request body must be a JSON object with a markdown field"})
		return
	}
	opts := api.render
	opts.HardWraps = opts.HardWraps || payload.HardWraps
	opts.Sanitize = true

	result, err := api.renderer.Render(r.Context(), []byte(payload.Markdown), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRenderResponse(result))
}

func (api *SiteAPI) handleArticleList(w http.ResponseWriter, r *http.Request) {
	if api.articles == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	q := r.URL.Query()
	params := blogapi.ListParams{
		Page:     parseIntQuery(q.Get("page"), 1),
		PageSize: parseIntQuery(q.Get("pageSize"), 10),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Sort:     q.Get("sort"),
	}
	page, err := api.articles.ListArticles(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	if !parseBoolQuery(q.Get("content"), false) {
		for i := range page.Items {
			page.Items[i].Content = ""
		}
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *SiteAPI) handleArticleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	api.serveArticle(w, r, func(ctx context.Context) (*blogapi.Article, error) {
		return api.articles.GetArticle(ctx, id)
	})
}

func (api *SiteAPI) handleArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	api.serveArticle(w, r, func(ctx context.Context) (*blogapi.Article, error) {
		return api.articles.GetArticleBySlug(ctx, slug)
	})
}

func (api *SiteAPI) serveArticle(w http.ResponseWriter, r *http.Request, load func(context.Context) (*blogapi.Article, error)) {
	if api.articles == nil || api.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	article, err := apiclient.Retry(r.Context(), api.retry, api.backoff, load)
	if err != nil {
		writeError(w, err)
		return
	}
	if article == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "article not found"})
		return
	}
	result, err := api.renderer.Render(r.Context(), []byte(article.Content), api.render)
	if err != nil {
		writeError(w, err)
		return
	}
	rendered := toRenderResponse(result)
	writeJSON(w, http.StatusOK, articleResponse{
		Article:  article,
		HTML:     rendered.HTML,
		Headings: rendered.Headings,
	})
}

func (api *SiteAPI) handleLocalDocument(w http.ResponseWriter, r *http.Request) {
	if api.documents == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	doc, err := api.documents.Load(r.Context(), r.PathValue("path"))
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, markdown.ErrNoSourceFS):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "local articles are not configured"})
		return
	case errors.As(err, &pathErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "article not found"})
		return
	case err != nil:
		writeError(w, err)
		return
	}

	headings := doc.Headings
	if headings == nil {
		headings = []interfaces.Heading{}
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Path:         doc.FilePath,
		FrontMatter:  doc.FrontMatter,
		HTML:         string(doc.BodyHTML),
		Headings:     headings,
		LastModified: doc.LastModified,
	})
}

func toRenderResponse(result *interfaces.RenderResult) renderResponse {
	out := renderResponse{Headings: []interfaces.Heading{}}
	if result == nil {
		return out
	}
	out.HTML = string(result.HTML)
	if len(result.Headings) > 0 {
		out.Headings = result.Headings
	}
	return out
}

// wrap attaches the caller's bearer token to the request context and logs
// the outcome of each request.
func (api *SiteAPI) wrap(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := api.now()
		ctx := apiclient.WithSession(r.Context())
		if token := bearerToken(r); token != "" {
			ctx = apiclient.WithToken(ctx, token)
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		logger := logging.WithRequestContext(api.logger, r.Method, r.URL.Path, "")
		args := []any{"status", rec.status, "duration", api.now().Sub(started)}
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("http.request.failed", args...)
			return
		}
		logger.Debug("http.request.complete", args...)
	})
}

func bearerToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// ErrNotMounted is returned by Handler when no mux could be built.
var ErrNotMounted = errors.New("http: site api not mounted")

// Handler returns a mux with the site routes registered.
func (api *SiteAPI) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMounted, err)
	}
	return mux, nil
}
