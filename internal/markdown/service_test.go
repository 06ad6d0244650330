package markdown

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

func articlesFS() fstest.MapFS {
	modified := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	return fstest.MapFS{
		"posts/hello.md": {
			Data:    []byte("---\ntitle: Hello World\ntags: [intro]\n---\n# Hello\n\n::: tip [Heads up]\nWelcome\n:::\n"),
			ModTime: modified,
		},
		"posts/embed.md": {
			Data:    []byte("::: iframe\nhttps://codepen.io/pen/1\n:::\n"),
			ModTime: modified,
		},
		"posts/archive/old.md": {
			Data:    []byte("# Old\n"),
			ModTime: modified,
		},
		"posts/notes.txt": {
			Data:    []byte("not markdown"),
			ModTime: modified,
		},
	}
}

func newTestService(t *testing.T, recursive bool, opts ...ServiceOption) *Service {
	t.Helper()
	cfg := Config{Recursive: recursive}
	opts = append([]ServiceOption{WithSourceFS(articlesFS())}, opts...)
	svc, err := NewService(cfg, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestServiceLoad(t *testing.T) {
	svc := newTestService(t, false)

	doc, err := svc.Load(context.Background(), "/posts/hello.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.FilePath != "posts/hello.md" {
		t.Fatalf("expected relative path, got %s", doc.FilePath)
	}
	if doc.FrontMatter.Title != "Hello World" || doc.FrontMatter.Slug == "" {
		t.Fatalf("expected front matter with derived slug, got %+v", doc.FrontMatter)
	}
	if !strings.Contains(string(doc.BodyHTML), `data-title="Heads up"`) {
		t.Fatalf("expected preprocessed container in HTML, got %s", doc.BodyHTML)
	}
	if len(doc.Headings) != 1 || doc.Headings[0].Text != "Hello" {
		t.Fatalf("expected heading to be collected, got %+v", doc.Headings)
	}
}

func TestServiceLoadDirectory(t *testing.T) {
	cases := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"flat", false, []string{"posts/embed.md", "posts/hello.md"}},
		{"recursive", true, []string{"posts/archive/old.md", "posts/embed.md", "posts/hello.md"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, tc.recursive)
			docs, err := svc.LoadDirectory(context.Background(), "posts")
			if err != nil {
				t.Fatalf("LoadDirectory: %v", err)
			}
			if len(docs) != len(tc.want) {
				t.Fatalf("expected %d documents, got %d", len(tc.want), len(docs))
			}
			for i, doc := range docs {
				if doc.FilePath != tc.want[i] {
					t.Fatalf("expected %s at %d, got %s", tc.want[i], i, doc.FilePath)
				}
				if filepath.Ext(doc.FilePath) != ".md" || len(doc.BodyHTML) == 0 {
					t.Fatalf("expected rendered markdown for %s", doc.FilePath)
				}
			}
		})
	}
}

func TestServiceLoadMissing(t *testing.T) {
	svc := newTestService(t, false)
	if _, err := svc.Load(context.Background(), "posts/missing.md"); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bare, err := NewService(Config{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := bare.Load(context.Background(), "posts/hello.md"); !errors.Is(err, ErrNoSourceFS) {
		t.Fatalf("expected ErrNoSourceFS, got %v", err)
	}
}

func TestServiceRejectsMissingBasePath(t *testing.T) {
	if _, err := NewService(Config{BasePath: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing base path")
	}
}

func TestServiceRenderUsesEmbedHosts(t *testing.T) {
	logger := newRecordingLogger()
	svc, err := NewService(Config{EmbedHosts: []string{"example.org"}}, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Render(context.Background(), []byte("::: iframe\nhttps://codepen.io/pen/1\n:::\n\n::: iframe\nhttps://www.example.org/demo\n:::"), interfaces.ParseOptions{Sanitize: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := string(result.HTML)
	if strings.Contains(got, `src="https://codepen.io`) {
		t.Fatalf("codepen is not in the configured list: %s", got)
	}
	if !strings.Contains(got, "https://www.example.org/demo") {
		t.Fatalf("expected configured host to be embedded: %s", got)
	}
	if !logger.has("warn", "markdown.embed.rejected") {
		t.Fatalf("expected rejection to be logged")
	}
}

func TestServiceRenderHonoursContext(t *testing.T) {
	svc := newTestService(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Render(ctx, []byte("# hi"), interfaces.ParseOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

type stubPreprocessor struct{ calls int }

func (s *stubPreprocessor) Process(src string) string {
	s.calls++
	return strings.ToUpper(src)
}

func TestServiceRenderDocument(t *testing.T) {
	pre := &stubPreprocessor{}
	svc, err := NewService(Config{}, WithPreprocessor(pre))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	doc := &interfaces.Document{FilePath: "a.md", Body: []byte("# shout")}
	result, err := svc.RenderDocument(context.Background(), doc, interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("RenderDocument: %v", err)
	}
	if pre.calls != 1 {
		t.Fatalf("expected preprocessor to run once, got %d", pre.calls)
	}
	if !strings.Contains(string(doc.BodyHTML), "SHOUT") || string(result.HTML) != string(doc.BodyHTML) {
		t.Fatalf("expected rendered HTML on the document, got %s", doc.BodyHTML)
	}

	if _, err := svc.RenderDocument(context.Background(), nil, interfaces.ParseOptions{}); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

func TestMergeParseOptions(t *testing.T) {
	merged := mergeParseOptions(
		interfaces.ParseOptions{Extensions: []string{"gfm"}},
		interfaces.ParseOptions{Extensions: []string{"table"}, Sanitize: true, HardWraps: true},
	)
	if len(merged.Extensions) != 1 || merged.Extensions[0] != "table" || !merged.Sanitize || !merged.HardWraps || merged.SafeMode {
		t.Fatalf("unexpected merge result %+v", merged)
	}
}
