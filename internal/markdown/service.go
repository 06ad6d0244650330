package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// ErrNoSourceFS is returned by Load when the service has no article filesystem.
var ErrNoSourceFS = errors.New("markdown service: no source filesystem configured")

// Config controls how the Markdown service preprocesses, renders and loads
// articles.
type Config struct {
	// BasePath is the directory Load reads from when no FS option is given.
	BasePath string
	// Pattern and Recursive drive LoadDirectory.
	Pattern   string
	Recursive bool
	// EmbedHosts replaces the iframe allow-list when non-empty.
	EmbedHosts []string
	// Parser holds the default render options.
	Parser interfaces.ParseOptions
}

// Service implements interfaces.MarkdownService: preprocess the extended
// syntax, render HTML with goldmark and keep headings alongside.
type Service struct {
	cfg          Config
	preprocessor interfaces.MarkdownPreprocessor
	parser       interfaces.MarkdownParser
	loader       *Loader
	logger       interfaces.Logger
	now          func() time.Time
}

var _ interfaces.MarkdownService = (*Service)(nil)

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithParser overrides the Markdown renderer.
func WithParser(parser interfaces.MarkdownParser) ServiceOption {
	return func(s *Service) {
		if parser != nil {
			s.parser = parser
		}
	}
}

// WithPreprocessor overrides the directive preprocessor.
func WithPreprocessor(pre interfaces.MarkdownPreprocessor) ServiceOption {
	return func(s *Service) {
		if pre != nil {
			s.preprocessor = pre
		}
	}
}

// WithSourceFS sets the filesystem articles are loaded from.
func WithSourceFS(filesystem fs.FS) ServiceOption {
	return func(s *Service) {
		if filesystem != nil {
			s.loader = NewLoader(filesystem, LoaderConfig{Pattern: s.cfg.Pattern, Recursive: s.cfg.Recursive})
		}
	}
}

// WithLogger attaches the markdown module logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Markdown service. When BasePath is set the
// directory must exist; without it Load reports ErrNoSourceFS unless
// WithSourceFS is given.
func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		logger: logging.NoOp(),
		now:    time.Now,
	}

	if base := strings.TrimSpace(cfg.BasePath); base != "" {
		if _, err := os.Stat(base); err != nil {
			return nil, fmt.Errorf("markdown service: stat base path %s: %w", base, err)
		}
		svc.loader = NewLoader(os.DirFS(base), LoaderConfig{Pattern: cfg.Pattern, Recursive: cfg.Recursive})
	}

	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}

	embeds := NewEmbedPolicy(cfg.EmbedHosts...)
	if svc.preprocessor == nil {
		svc.preprocessor = NewPreprocessor(WithEmbedPolicy(embeds), WithPreprocessorLogger(svc.logger))
	}
	if svc.parser == nil {
		svc.parser = NewGoldmarkParser(cfg.Parser, WithSanitizeEmbeds(embeds))
	}
	return svc, nil
}

// Load reads a single article relative to the source filesystem and renders it.
func (s *Service) Load(ctx context.Context, path string) (*interfaces.Document, error) {
	if s.loader == nil {
		return nil, ErrNoSourceFS
	}
	doc, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := s.RenderDocument(ctx, doc, interfaces.ParseOptions{}); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDirectory reads and renders every article under dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	if s.loader == nil {
		return nil, ErrNoSourceFS
	}
	docs, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if _, err := s.RenderDocument(ctx, doc, interfaces.ParseOptions{}); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Render preprocesses Markdown and converts it into HTML.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) (*interfaces.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := s.now()
	processed := s.preprocessor.Process(string(markdown))
	result, err := s.parser.Render([]byte(processed), mergeParseOptions(s.cfg.Parser, opts))
	if err != nil {
		s.logger.Error("markdown.render.failed", "error", err)
		return nil, err
	}
	s.logger.Debug("markdown.render.complete",
		"bytes", len(markdown),
		"headings", len(result.Headings),
		"duration", s.now().Sub(started),
	)
	return result, nil
}

// RenderDocument renders the document body and stores HTML and headings on it.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) (*interfaces.RenderResult, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	result, err := s.Render(ctx, doc.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = result.HTML
	doc.Headings = result.Headings
	return result, nil
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.Sanitize {
		result.Sanitize = true
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	return result
}
