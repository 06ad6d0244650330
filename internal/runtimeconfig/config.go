package runtimeconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	urlkit "github.com/goliatone/go-urlkit"
)

var ErrAPIBaseURLRequired = errors.New("blog config: api base url is required")
var ErrAPIBaseURLInvalid = errors.New("blog config: api base url is invalid")
var ErrAPITimeoutInvalid = errors.New("blog config: api timeout must be zero or positive")
var ErrRetryAttemptsInvalid = errors.New("blog config: retry attempts must be at least one")
var ErrMarkdownFeatureRequired = errors.New("blog config: markdown feature must be enabled to configure markdown")
var ErrMarkdownContentDirRequired = errors.New("blog config: markdown content directory is required when markdown is enabled")
var ErrEmbedHostInvalid = errors.New("blog config: embed host is invalid")
var ErrHTTPAddrRequired = errors.New("blog config: http listen address is required")
var ErrHTTPBasePathInvalid = errors.New("blog config: http base path must start with /")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

// Config aggregates the settings of the blog front-end: the backend API it
// talks to, article rendering, the site HTTP adapter and logging.
type Config struct {
	API      APIConfig
	Markdown MarkdownConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
	Features Features
}

// APIConfig describes the backend API collaborator.
type APIConfig struct {
	BaseURL string
	// Timeout of zero leaves failure detection to the transport.
	Timeout time.Duration
	Headers map[string]string
	Retry   RetryConfig
	// Routes overrides the endpoint table used by the blog API wrappers.
	Routes *urlkit.Config
}

// RetryConfig configures the opt-in retry helper used by page loaders.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// MarkdownConfig captures article source and rendering behaviour.
type MarkdownConfig struct {
	Enabled    bool
	ContentDir string
	Pattern    string
	Recursive  bool
	EmbedHosts []string
	Parser     MarkdownParserConfig
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// HTTPConfig configures the site adapter.
type HTTPConfig struct {
	Addr         string
	BasePath     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles optional functionality.
type Features struct {
	Markdown bool
	Logger   bool
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Headers: map[string]string{},
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   200 * time.Millisecond,
				MaxDelay:    2 * time.Second,
			},
		},
		Markdown: MarkdownConfig{
			ContentDir: "content",
			Pattern:    "*.md",
			Recursive:  true,
			Parser: MarkdownParserConfig{
				Sanitize: true,
			},
		},
		HTTP: HTTPConfig{
			Addr:         ":3000",
			BasePath:     "/api",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks. Errors wrap the sentinel values above
// so callers can match them with errors.Is.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return ErrAPIBaseURLRequired
	}
	if err := validation.Validate(cfg.API.BaseURL, is.RequestURL); err != nil {
		return fmt.Errorf("%w: %v", ErrAPIBaseURLInvalid, err)
	}
	if !strings.HasPrefix(strings.ToLower(cfg.API.BaseURL), "http://") && !strings.HasPrefix(strings.ToLower(cfg.API.BaseURL), "https://") {
		return fmt.Errorf("%w: scheme must be http or https", ErrAPIBaseURLInvalid)
	}
	if cfg.API.Timeout < 0 {
		return ErrAPITimeoutInvalid
	}
	if cfg.API.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: %d", ErrRetryAttemptsInvalid, cfg.API.Retry.MaxAttempts)
	}

	if cfg.Markdown.Enabled {
		if !cfg.Features.Markdown {
			return ErrMarkdownFeatureRequired
		}
		if strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
			return ErrMarkdownContentDirRequired
		}
	}
	if err := validation.Validate(cfg.Markdown.EmbedHosts, validation.Each(validation.By(embedHostRule))); err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedHostInvalid, err)
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if base := strings.TrimSpace(cfg.HTTP.BasePath); base != "" && !strings.HasPrefix(base, "/") {
		return fmt.Errorf("%w: %s", ErrHTTPBasePathInvalid, base)
	}

	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// embedHostRule accepts a bare host name, optionally prefixed with "*.".
func embedHostRule(value any) error {
	host, _ := value.(string)
	host = strings.TrimPrefix(strings.TrimSpace(host), "*.")
	return validation.Validate(host, validation.Required, is.Host)
}

// Lookup reads one environment variable; os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// FromEnv starts from DefaultConfig and applies BLOG_* variables.
func FromEnv(lookup Lookup) (Config, error) {
	cfg := DefaultConfig()
	if lookup == nil {
		return cfg, nil
	}
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if v, ok := get("BLOG_API_BASE_URL"); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := get("BLOG_API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("blog config: BLOG_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v, ok := get("BLOG_API_RETRY_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("blog config: BLOG_API_RETRY_ATTEMPTS: %w", err)
		}
		cfg.API.Retry.MaxAttempts = n
	}
	if v, ok := get("BLOG_LOG_PROVIDER"); ok {
		cfg.Logging.Provider = v
		cfg.Features.Logger = true
	}
	if v, ok := get("BLOG_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("BLOG_LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := get("BLOG_HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v, ok := get("BLOG_HTTP_BASE_PATH"); ok {
		cfg.HTTP.BasePath = v
	}
	if v, ok := get("BLOG_MARKDOWN_DIR"); ok {
		cfg.Markdown.ContentDir = v
		cfg.Markdown.Enabled = true
		cfg.Features.Markdown = true
	}
	if v, ok := get("BLOG_EMBED_HOSTS"); ok {
		cfg.Markdown.EmbedHosts = splitList(v)
	}
	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
