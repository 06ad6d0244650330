package markdown

import (
	"html"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer renders fenced code with an optional title header taken
// from a bracket suffix on the info string or a leading BLOCK_TITLE comment.
// Highlighting is left to the browser through the language-* class.
type codeBlockRenderer struct{}

var _ renderer.NodeRenderer = codeBlockRenderer{}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*ast.FencedCodeBlock)

	var info string
	if block.Info != nil {
		info = string(block.Info.Segment.Value(source))
	}
	lang, title, hasTitle := splitFenceTitle(info)
	if !hasTitle {
		lang = string(block.Language(source))
	}

	lines := block.Lines()
	start := 0
	if lines.Len() > 0 {
		first := lines.At(0)
		if commentTitle, ok := parseBlockTitleComment(string(first.Value(source))); ok {
			start = 1
			if !hasTitle {
				title = html.UnescapeString(commentTitle)
				hasTitle = true
			}
		}
	}

	if hasTitle {
		_, _ = w.WriteString(`<div class="code-block"><div class="code-block-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(title)))
		_, _ = w.WriteString("</div>")
	}
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_ = w.WriteByte('>')
	for i := start; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>")
	if hasTitle {
		_, _ = w.WriteString("</div>")
	}
	_ = w.WriteByte('\n')
	return ast.WalkContinue, nil
}
