package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// Directive is one parsed `::: type [title]` block.
type Directive struct {
	Type    string
	Title   string
	Content string
}

const (
	DirectiveTip       = "tip"
	DirectiveWarning   = "warning"
	DirectiveDanger    = "danger"
	DirectiveInfo      = "info"
	DirectiveNote      = "note"
	DirectiveSuccess   = "success"
	DirectiveError     = "error"
	DirectiveCodeGroup = "code-group"
	DirectiveDetail    = "detail"
	DirectiveIframe    = "iframe"
)

// KnownDirectives lists the types the front-end has dedicated presentation
// for. Any other identifier still renders through the generic wrapper.
var KnownDirectives = []string{
	DirectiveTip, DirectiveWarning, DirectiveDanger, DirectiveInfo, DirectiveNote,
	DirectiveSuccess, DirectiveError, DirectiveCodeGroup, DirectiveDetail, DirectiveIframe,
}

const iframeSandbox = "allow-scripts allow-same-origin allow-popups allow-forms"

var directiveOpener = regexp.MustCompile(`^\s{0,3}:::\s*([A-Za-z][A-Za-z0-9_-]*)\s*(.*?)\s*$`)

// Preprocessor rewrites container directives, code block titles and embeds
// into Markdown that a CommonMark renderer understands. It holds no mutable
// state and is safe for concurrent use.
type Preprocessor struct {
	embeds *EmbedPolicy
	logger interfaces.Logger
}

var _ interfaces.MarkdownPreprocessor = (*Preprocessor)(nil)

// PreprocessorOption customises a Preprocessor.
type PreprocessorOption func(*Preprocessor)

// WithEmbedPolicy replaces the default iframe allow-list.
func WithEmbedPolicy(policy *EmbedPolicy) PreprocessorOption {
	return func(p *Preprocessor) {
		if policy != nil {
			p.embeds = policy
		}
	}
}

// WithPreprocessorLogger attaches the logger used to report rejected embeds.
func WithPreprocessorLogger(logger interfaces.Logger) PreprocessorOption {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPreprocessor returns a Preprocessor using the default embed policy.
func NewPreprocessor(opts ...PreprocessorOption) *Preprocessor {
	p := &Preprocessor{
		embeds: NewEmbedPolicy(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

var defaultPreprocessor = NewPreprocessor()

// Preprocess runs the default Preprocessor over src.
func Preprocess(src string) string {
	return defaultPreprocessor.Process(src)
}

// Process expands container directives, then moves `[title]` fence suffixes
// into BLOCK_TITLE comments. Malformed input is passed through.
func (p *Preprocessor) Process(src string) string {
	if src == "" {
		return src
	}
	lines := splitLines(normalizeNewlines(src))
	lines = p.expand(lines)
	lines = extractCodeTitles(lines)
	return strings.Join(lines, "\n")
}

// expand replaces every closed directive in lines, outside fenced code.
func (p *Preprocessor) expand(lines []string) []string {
	out := make([]string, 0, len(lines))
	var tracker fenceTracker

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if tracker.step(line) != lineText {
			out = append(out, line)
			continue
		}

		directive, ok := parseDirectiveOpener(line)
		if !ok {
			out = append(out, line)
			continue
		}
		end := findDirectiveClose(lines, i+1)
		if end < 0 {
			out = append(out, line)
			continue
		}

		directive.Content = strings.Join(lines[i+1:end], "\n")
		out = append(out, p.render(directive)...)
		i = end
	}
	return out
}

func parseDirectiveOpener(line string) (Directive, bool) {
	match := directiveOpener.FindStringSubmatch(line)
	if match == nil {
		return Directive{}, false
	}
	title := match[2]
	if strings.HasPrefix(title, "[") && strings.HasSuffix(title, "]") {
		title = strings.TrimSpace(title[1 : len(title)-1])
	}
	return Directive{Type: strings.ToLower(match[1]), Title: title}, true
}

func isDirectiveClose(line string) bool {
	return strings.TrimSpace(line) == ":::"
}

// findDirectiveClose returns the index of the closer matching an opener that
// sits just before start, honouring nesting and fenced code. It returns -1
// when the directive is never closed.
func findDirectiveClose(lines []string, start int) int {
	depth := 1
	var tracker fenceTracker
	for i := start; i < len(lines); i++ {
		if tracker.step(lines[i]) != lineText {
			continue
		}
		switch {
		case isDirectiveClose(lines[i]):
			depth--
			if depth == 0 {
				return i
			}
		case directiveOpener.MatchString(lines[i]):
			depth++
		}
	}
	return -1
}

func (p *Preprocessor) render(d Directive) []string {
	switch d.Type {
	case DirectiveIframe:
		return p.renderIframe(d)
	case DirectiveCodeGroup, DirectiveDetail:
		inner := p.expand(splitLines(d.Content))
		return wrapContainer(d, normalizeSpacing(inner))
	default:
		inner := splitLines(d.Content)
		if isSingleFence(inner) {
			return wrapContainer(d, trimBlankLines(inner))
		}
		return wrapContainer(d, normalizeSpacing(p.expand(inner)))
	}
}

func (p *Preprocessor) renderIframe(d Directive) []string {
	src := strings.TrimSpace(d.Content)
	if err := p.embeds.Validate(src); err != nil {
		p.logger.Warn("markdown.embed.rejected", "url", src, "error", err)
		block := `<div class="custom-container custom-container-error" data-type="error">` +
			`<p>Rejected iframe URL: <code>` + html.EscapeString(src) + `</code></p></div>`
		return []string{"", block, ""}
	}

	title := d.Title
	if title == "" {
		title = "Embedded content"
	}
	block := `<div class="iframe-container" data-type="iframe">` +
		`<iframe src="` + html.EscapeString(src) + `" title="` + html.EscapeString(title) + `"` +
		` loading="lazy" sandbox="` + iframeSandbox + `" allowfullscreen></iframe></div>`
	return []string{"", block, ""}
}

// wrapContainer surrounds inner with the container div. Blank lines keep the
// div tags as standalone HTML blocks so inner stays Markdown.
func wrapContainer(d Directive, inner []string) []string {
	open := `<div class="custom-container custom-container-` + d.Type + `" data-type="` + d.Type + `"`
	if d.Title != "" {
		open += ` data-title="` + html.EscapeString(d.Title) + `"`
	}
	open += ">"

	out := make([]string, 0, len(inner)+6)
	out = append(out, "", open, "")
	out = append(out, trimBlankLines(inner)...)
	out = append(out, "", "</div>", "")
	return out
}
