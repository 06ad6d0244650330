package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/internal/logging/console"
)

func TestConsoleLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)

	minLevel := console.LevelDebug
	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
		MinLevel: &minLevel,
	})

	logger := provider.GetLogger("blog.api")
	logger = logging.WithFields(logger, map[string]any{"module": "blog.api"})
	ctx := logging.ContextWithRequestID(context.Background(), "req_1710428966535_k3j9a8x2m")
	logger = logger.WithContext(ctx)

	logger.Error("api.request.failed",
		"status", 503,
		"message", "Service temporarily unavailable",
		"cause", errors.New("upstream"),
	)

	got := strings.TrimSpace(buf.String())
	want := `2024-03-14T15:09:26.535897Z ERROR [blog.api] api.request.failed cause=upstream message="Service temporarily unavailable" module=blog.api request_id=req_1710428966535_k3j9a8x2m status=503`
	if got != want {
		t.Fatalf("unexpected log entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	minLevel := console.LevelInfo
	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: time.Now,
		MinLevel: &minLevel,
	})

	logger := provider.GetLogger("blog.test")
	logger.Debug("ignored.debug", "foo", "bar")
	logger.Info("included.info", "foo", "bar")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected single log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "included.info") {
		t.Fatalf("expected info log to be written, got %s", lines[0])
	}
}

func TestConsoleLogger_DanglingArgIsPositional(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})

	provider.GetLogger("").Warn("markdown.embed.rejected", "url", "http://x", "extra")

	if !strings.Contains(buf.String(), "arg_1=extra") {
		t.Fatalf("expected positional arg, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace":   console.LevelTrace,
		"DEBUG":   console.LevelDebug,
		" info ":  console.LevelInfo,
		"warning": console.LevelWarn,
		"error":   console.LevelError,
		"fatal":   console.LevelFatal,
	}
	for input, want := range cases {
		got, ok := console.ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", input, got, ok, want)
		}
	}
	if _, ok := console.ParseLevel("verbose"); ok {
		t.Fatal("expected unknown level to be rejected")
	}
}
