package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// GoldmarkParser implements interfaces.MarkdownParser using the goldmark engine.
// The parser is stateless apart from its sanitise policy, which bluemonday
// documents as safe for concurrent use.
type GoldmarkParser struct {
	defaultOptions interfaces.ParseOptions
	sanitizer      *bluemonday.Policy
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// GoldmarkOption customises a GoldmarkParser.
type GoldmarkOption func(*GoldmarkParser)

// WithSanitizeEmbeds keeps iframes for the given policy when sanitising.
func WithSanitizeEmbeds(policy *EmbedPolicy) GoldmarkOption {
	return func(p *GoldmarkParser) {
		if policy != nil {
			p.sanitizer = newSanitizePolicy(policy)
		}
	}
}

// NewGoldmarkParser constructs a parser with sensible defaults (GFM extensions,
// hard wraps disabled, raw HTML allowed so container markup survives).
func NewGoldmarkParser(defaults interfaces.ParseOptions, opts ...GoldmarkOption) *GoldmarkParser {
	p := &GoldmarkParser{
		defaultOptions: defaults,
		sanitizer:      newSanitizePolicy(NewEmbedPolicy()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Parse satisfies interfaces.MarkdownParser by rendering Markdown into HTML
// using the parser's default configuration.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaultOptions)
}

// ParseWithOptions renders Markdown into HTML using the provided options.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	result, err := p.Render(markdown, opts)
	if err != nil {
		return nil, err
	}
	return result.HTML, nil
}

// Render converts Markdown into HTML and returns the headings it assigned ids
// to, in document order.
func (p *GoldmarkParser) Render(markdown []byte, opts interfaces.ParseOptions) (*interfaces.RenderResult, error) {
	engine := newGoldmarkEngine(opts)
	pctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := engine.Parser().Parse(text.NewReader(markdown), parser.WithContext(pctx))

	var buf bytes.Buffer
	if err := engine.Renderer().Render(&buf, markdown, doc); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}

	out := buf.Bytes()
	if opts.Sanitize {
		out = p.sanitizer.SanitizeBytes(out)
	}
	return &interfaces.RenderResult{
		HTML:     out,
		Headings: collectHeadings(doc, markdown),
	}, nil
}

// newGoldmarkEngine builds a goldmark.Markdown configured based on the supplied
// parse options. Unsupported extension names are ignored.
func newGoldmarkEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	exts := collectExtensions(opts.Extensions)

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(codeBlockRenderer{}, 100)),
	}

	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	// SafeMode drops raw HTML entirely, which also drops container markup.
	// Sanitize keeps it and scrubs the output instead.
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
		goldmark.WithRendererOptions(rendererOptions...),
	}

	if len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}

		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}

	return extenders
}
