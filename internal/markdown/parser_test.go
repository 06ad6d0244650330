package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

const sampleArticle = `---
title: Sample Document
slug: sample-document
summary: Sample summary goes here
category: engineering
tags: [go, blog]
custom_flag: true
---
# Sample Document

Body text.
`

func TestParseFrontMatter(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte(sampleArticle))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Sample Document" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Slug != "sample-document" {
		t.Fatalf("FrontMatter Slug mismatch, got %q", fm.Slug)
	}
	if fm.Category != "engineering" {
		t.Fatalf("FrontMatter Category mismatch, got %q", fm.Category)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if fm.Custom["custom_flag"] != true {
		t.Fatalf("FrontMatter Custom flag missing: %#v", fm.Custom)
	}
	if fm.Raw["summary"] != "Sample summary goes here" {
		t.Fatalf("FrontMatter Raw summary missing: %#v", fm.Raw)
	}
	if !strings.Contains(string(body), "# Sample Document") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatterWithoutHeader(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("# Just a body\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" || !strings.Contains(string(body), "Just a body") {
		t.Fatalf("expected body only, got %+v %q", fm, body)
	}
}

func TestBuildDocument(t *testing.T) {
	modified := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	doc, err := BuildDocument("posts/sample.md", []byte(sampleArticle), modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if doc.FilePath != "posts/sample.md" {
		t.Fatalf("expected FilePath to be set, got %q", doc.FilePath)
	}
	if !doc.LastModified.Equal(modified) {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
	if len(doc.Body) == 0 || len(doc.BodyHTML) != 0 {
		t.Fatalf("expected raw body and no HTML yet")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}

	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_HeadingIDs(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	result, err := parser.Render([]byte("# Intro\n\n## Intro\n\n### Intro\n"), interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(result.Headings) != 3 {
		t.Fatalf("expected three headings, got %+v", result.Headings)
	}

	ids := []string{result.Headings[0].ID, result.Headings[1].ID, result.Headings[2].ID}
	if ids[0] == "" || ids[1] != ids[0]+"-1" || ids[2] != ids[0]+"-2" {
		t.Fatalf("expected de-duplicated ids, got %v", ids)
	}
	for i, heading := range result.Headings {
		if heading.Level != i+1 || heading.Text != "Intro" {
			t.Fatalf("unexpected heading %+v", heading)
		}
		if !strings.Contains(string(result.HTML), `id="`+heading.ID+`"`) {
			t.Fatalf("expected id %q in HTML %s", heading.ID, result.HTML)
		}
	}
}

func TestGoldmarkParser_HeadingIDsAreStable(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	src := []byte("# 你好世界\n\n## Getting *Started*\n")

	first, err := parser.Render(src, interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := parser.Render(src, interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := range first.Headings {
		if first.Headings[i].ID == "" || first.Headings[i].ID != second.Headings[i].ID {
			t.Fatalf("expected stable non-empty ids, got %+v and %+v", first.Headings, second.Headings)
		}
	}
	if first.Headings[1].Text != "Getting Started" {
		t.Fatalf("expected inline markup to be flattened, got %q", first.Headings[1].Text)
	}
}

func TestHeadingIDFallbacks(t *testing.T) {
	if HeadingID("   ") != fallbackHeadingID {
		t.Fatalf("blank headings use the fallback id")
	}
	ids := newHeadingIDs()
	ids.Put([]byte("taken"))
	if got := ids.unique("taken"); got != "taken-1" {
		t.Fatalf("expected ids reserved through Put to be skipped, got %q", got)
	}
}

func TestGoldmarkParser_CodeBlockTitle(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	src := Preprocess("```js [Example <1>]\nconsole.log(1)\n```")

	html, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := string(html)
	for _, want := range []string{
		`<div class="code-block"><div class="code-block-title">Example &lt;1&gt;</div>`,
		`<pre><code class="language-js">console.log(1)`,
		`</code></pre></div>`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %s", want, got)
		}
	}
	if strings.Contains(got, "BLOCK_TITLE") {
		t.Fatalf("title marker should not be rendered as code: %s", got)
	}
}

func TestGoldmarkParser_CodeBlockBracketInfo(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.Parse([]byte("```go [main.go]\npackage main\n```\n\n```\nplain\n```"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := string(html)
	if !strings.Contains(got, `<div class="code-block-title">main.go</div><pre><code class="language-go">`) {
		t.Fatalf("expected bracket title header, got %s", got)
	}
	if !strings.Contains(got, "<pre><code>plain\n</code></pre>") {
		t.Fatalf("expected untitled block without header, got %s", got)
	}
}

func TestGoldmarkParser_ContainerMarkup(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.Parse([]byte(Preprocess("::: tip [Heads up]\nSome *text*\n:::\n\nAfter")))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := string(html)
	for _, want := range []string{
		`<div class="custom-container custom-container-tip" data-type="tip" data-title="Heads up">`,
		"<p>Some <em>text</em></p>",
		"</div>",
		"<p>After</p>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %s", want, got)
		}
	}
}

func TestGoldmarkParser_Sanitize(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	src := Preprocess("# Title\n\n<script>alert(1)</script>\n\n::: warning [Careful]\nText\n:::\n\n::: iframe\nhttps://codesandbox.io/s/abc\n:::\n\n<iframe src=\"https://evil.example.com/x\"></iframe>\n")

	html, err := parser.ParseWithOptions([]byte(src), interfaces.ParseOptions{Sanitize: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	got := string(html)
	if strings.Contains(got, "<script") {
		t.Fatalf("script should be removed: %s", got)
	}
	if strings.Contains(got, "evil.example.com") {
		t.Fatalf("iframes to other hosts should be removed: %s", got)
	}
	for _, want := range []string{
		`class="custom-container custom-container-warning"`,
		`data-type="warning"`,
		`data-title="Careful"`,
		`https://codesandbox.io/s/abc`,
		`<h1 id="`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q to survive sanitising: %s", want, got)
		}
	}
}

func TestGoldmarkParser_SanitizeKeepsPunctuatedTitles(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	cases := []struct {
		title string
		want  string
	}{
		{title: "Heads up", want: `data-title="Heads up"`},
		{title: "Note: read this", want: `data-title="Note: read this"`},
		{title: "Why?", want: `data-title="Why?"`},
		{title: "A & B", want: `data-title="A &amp; B"`},
		{title: "Step #1", want: `data-title="Step #1"`},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			src := Preprocess("::: tip [" + tc.title + "]\nBody\n:::")
			html, err := parser.ParseWithOptions([]byte(src), interfaces.ParseOptions{Sanitize: true})
			if err != nil {
				t.Fatalf("ParseWithOptions: %v", err)
			}
			if !strings.Contains(string(html), tc.want) {
				t.Fatalf("expected %q to survive sanitising: %s", tc.want, html)
			}
		})
	}

	src := Preprocess("::: iframe [Demo: sandbox?]\nhttps://codesandbox.io/s/abc\n:::")
	html, err := parser.ParseWithOptions([]byte(src), interfaces.ParseOptions{Sanitize: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), `title="Demo: sandbox?"`) {
		t.Fatalf("expected iframe title to survive sanitising: %s", html)
	}
}

func TestGoldmarkParser_SafeModeDropsHTML(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{SafeMode: true})
	html, err := parser.Parse([]byte("<div>raw</div>\n\ntext"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(string(html), "<div>raw</div>") {
		t.Fatalf("expected raw HTML to be omitted, got %s", html)
	}
}

func TestCollectExtensions(t *testing.T) {
	if got := collectExtensions(nil); len(got) != 3 {
		t.Fatalf("expected default extensions, got %d", len(got))
	}
	if got := collectExtensions([]string{"Table", "table", "unknown", " footnote "}); len(got) != 2 {
		t.Fatalf("expected de-duplicated known extensions, got %d", len(got))
	}
}
