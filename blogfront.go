package blogfront

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-blogfront/internal/apiclient"
	"github.com/goliatone/go-blogfront/internal/blogapi"
	sitehttp "github.com/goliatone/go-blogfront/internal/http"
	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/internal/logging/console"
	"github.com/goliatone/go-blogfront/internal/logging/gologger"
	"github.com/goliatone/go-blogfront/internal/markdown"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// APIClient exports the backend client.
type APIClient = *apiclient.Client

// BlogService exports the typed blog API.
type BlogService = *blogapi.Service

// MarkdownService exports the article rendering contract.
type MarkdownService = interfaces.MarkdownService

// ErrorResponse exports the normalised API failure.
type ErrorResponse = apiclient.ErrorResponse

// Module wires the blog front-end runtime: logging, the backend client, the
// typed blog API, Markdown rendering and the site HTTP adapter.
type Module struct {
	cfg       Config
	provider  interfaces.LoggerProvider
	errors    *apiclient.Broadcaster
	client    *apiclient.Client
	blog      *blogapi.Service
	markdown  *markdown.Service
	site      *sitehttp.SiteAPI
	doer      apiclient.HTTPDoer
	tokens    apiclient.TokenStore
	logWriter io.Writer
}

// Option customises Module construction.
type Option func(*Module)

// WithLoggerProvider overrides the provider selected from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		if provider != nil {
			m.provider = provider
		}
	}
}

// WithHTTPClient overrides the transport used for backend calls.
func WithHTTPClient(doer apiclient.HTTPDoer) Option {
	return func(m *Module) {
		m.doer = doer
	}
}

// WithPersistentTokenStore sets the long-lived token store consulted before
// the per-request session token.
func WithPersistentTokenStore(store apiclient.TokenStore) Option {
	return func(m *Module) {
		m.tokens = store
	}
}

// WithLogWriter redirects the console provider output.
func WithLogWriter(w io.Writer) Option {
	return func(m *Module) {
		if w != nil {
			m.logWriter = w
		}
	}
}

// New validates cfg and constructs every component.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Module{cfg: cfg, errors: apiclient.NewBroadcaster()}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.provider == nil {
		provider, err := newLoggerProvider(cfg, m.logWriter)
		if err != nil {
			return nil, err
		}
		m.provider = provider
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(logging.APILogger(m.provider)),
		apiclient.WithReporter(m.errors),
		apiclient.WithCredentials(apiclient.Credentials{
			Persistent: m.tokens,
			Session:    apiclient.ContextTokenStore{},
		}),
	}
	if m.doer != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(m.doer))
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Headers: cfg.API.Headers,
	}, clientOpts...)
	if err != nil {
		return nil, err
	}
	m.client = client

	blog, err := blogapi.NewService(client, cfg.API.Routes, blogapi.WithLogger(logging.ModuleLogger(m.provider, "blog.api.blog")))
	if err != nil {
		return nil, err
	}
	m.blog = blog

	mdCfg := markdown.Config{
		Pattern:    cfg.Markdown.Pattern,
		Recursive:  cfg.Markdown.Recursive,
		EmbedHosts: cfg.Markdown.EmbedHosts,
		Parser:     parseOptions(cfg.Markdown.Parser),
	}
	if cfg.Markdown.Enabled {
		mdCfg.BasePath = cfg.Markdown.ContentDir
	}
	md, err := markdown.NewService(mdCfg, markdown.WithLogger(logging.MarkdownLogger(m.provider)))
	if err != nil {
		return nil, fmt.Errorf("markdown service: %w", err)
	}
	m.markdown = md

	m.site = sitehttp.NewSiteAPI(
		sitehttp.WithBasePath(cfg.HTTP.BasePath),
		sitehttp.WithArticleSource(blog),
		sitehttp.WithRenderer(md),
		sitehttp.WithDocumentSource(md),
		sitehttp.WithRenderOptions(parseOptions(cfg.Markdown.Parser)),
		sitehttp.WithLogger(logging.HTTPLogger(m.provider)),
		sitehttp.WithRetry(
			apiclient.RetryPolicy{MaxAttempts: cfg.API.Retry.MaxAttempts},
			apiclient.ExponentialBackoff(cfg.API.Retry.BaseDelay, cfg.API.Retry.MaxDelay),
		),
	)
	return m, nil
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Logger returns a module-scoped logger from the configured provider.
func (m *Module) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(m.provider, module)
}

// Client returns the backend API client.
func (m *Module) Client() APIClient {
	return m.client
}

// Blog returns the typed blog API.
func (m *Module) Blog() BlogService {
	return m.blog
}

// Markdown returns the article rendering service.
func (m *Module) Markdown() MarkdownService {
	return m.markdown
}

// OnError subscribes fn to every failed API call. The returned func
// unsubscribes.
func (m *Module) OnError(fn apiclient.ReporterFunc) func() {
	return m.errors.Subscribe(fn)
}

// Handler returns the site HTTP handler.
func (m *Module) Handler() (http.Handler, error) {
	return m.site.Handler()
}

// RegisterRoutes mounts the site routes on an existing mux.
func (m *Module) RegisterRoutes(mux *http.ServeMux) error {
	return m.site.Register(mux)
}

func parseOptions(cfg MarkdownParserConfig) interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: cfg.Extensions,
		Sanitize:   cfg.Sanitize,
		HardWraps:  cfg.HardWraps,
		SafeMode:   cfg.SafeMode,
	}
}

func newLoggerProvider(cfg Config, w io.Writer) (interfaces.LoggerProvider, error) {
	if !cfg.Features.Logger {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
	default:
		opts := console.Options{Writer: w}
		if level, ok := console.ParseLevel(cfg.Logging.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}
