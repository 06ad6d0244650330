package interfaces

import (
	"context"
	"time"
)

// MarkdownPreprocessor rewrites the extended article syntax (container
// directives, code block titles, embeds) into Markdown that a CommonMark
// renderer understands. Implementations must never fail: malformed input
// degrades to visible, safe output.
type MarkdownPreprocessor interface {
	Process(source string) string
}

// MarkdownParser converts Markdown bytes into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
	// Render converts Markdown and also reports the headings it assigned ids to.
	Render(markdown []byte, opts ParseOptions) (*RenderResult, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// RenderResult is the output of a single render pass.
type RenderResult struct {
	HTML     []byte
	Headings []Heading
}

// Heading is a table-of-contents entry collected while rendering.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// MarkdownService exposes the article rendering workflow: preprocess the
// extended syntax, render HTML and keep metadata alongside.
type MarkdownService interface {
	Load(ctx context.Context, path string) (*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) (*RenderResult, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) (*RenderResult, error)
}

// Document represents an article source with parsed front matter.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	Headings     []Heading
	LastModified time.Time
}

// FrontMatter models metadata authors can place at the top of an article.
// Unknown keys land in Custom; Raw keeps every populated key for templates.
type FrontMatter struct {
	Title    string         `yaml:"title" json:"title"`
	Slug     string         `yaml:"slug" json:"slug"`
	Summary  string         `yaml:"summary" json:"summary"`
	Category string         `yaml:"category" json:"category"`
	Tags     []string       `yaml:"tags" json:"tags"`
	Author   string         `yaml:"author" json:"author"`
	Cover    string         `yaml:"cover" json:"cover"`
	Date     time.Time      `yaml:"date" json:"date"`
	Draft    bool           `yaml:"draft" json:"draft"`
	Custom   map[string]any `yaml:",inline" json:"custom"`
	Raw      map[string]any `yaml:"-" json:"raw"`
}
