package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"

	"github.com/goliatone/go-blogfront/internal/identity"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

const fallbackHeadingID = "section"

// headingIDs assigns deterministic anchor ids: the slug of the heading text,
// a hash-derived id when the text has no slug, and -1, -2 suffixes for
// repeats. A fresh instance is used per render.
type headingIDs struct {
	used map[string]struct{}
}

var _ parser.IDs = (*headingIDs)(nil)

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: map[string]struct{}{}}
}

func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(h.unique(HeadingID(string(value))))
}

func (h *headingIDs) Put(value []byte) {
	h.used[string(value)] = struct{}{}
}

func (h *headingIDs) unique(base string) string {
	candidate := base
	for n := 1; ; n++ {
		if _, taken := h.used[candidate]; !taken {
			h.used[candidate] = struct{}{}
			return candidate
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// HeadingID returns the anchor id for heading text before de-duplication.
func HeadingID(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackHeadingID
	}
	if normalized, err := slug.Normalize(text); err == nil && normalized != "" {
		return normalized
	}
	if key := identity.HeadingKey(text); key != "" {
		return fallbackHeadingID + "-" + key
	}
	return fallbackHeadingID
}

// collectHeadings walks a parsed document and returns every heading with the
// id goldmark attached to it.
func collectHeadings(doc ast.Node, source []byte) []interfaces.Heading {
	var headings []interfaces.Heading
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		entry := interfaces.Heading{
			Level: heading.Level,
			Text:  strings.TrimSpace(inlineText(heading, source)),
		}
		if id, ok := heading.AttributeString("id"); ok {
			switch v := id.(type) {
			case []byte:
				entry.ID = string(v)
			case string:
				entry.ID = v
			}
		}
		headings = append(headings, entry)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// inlineText concatenates the literal text below node.
func inlineText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		default:
			buf.WriteString(inlineText(child, source))
		}
	}
	return buf.String()
}
