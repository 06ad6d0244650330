package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	blogfront "github.com/goliatone/go-blogfront"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	cfg, err := loadConfig(
		[]string{"-addr", ":9000", "-log-level", "debug", "-retries", "1"},
		envMap(map[string]string{"BLOG_HTTP_ADDR": ":8081", "BLOG_API_BASE_URL": "https://api.example.com/v1"}),
	)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("expected flag to win, got %q", cfg.HTTP.Addr)
	}
	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("expected env base url, got %q", cfg.API.BaseURL)
	}
	if !cfg.Features.Logger || cfg.Logging.Level != "debug" || cfg.API.Retry.MaxAttempts != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := loadConfig([]string{"-api", ""}, envMap(nil))
	if !errors.Is(err, blogfront.ErrAPIBaseURLRequired) {
		t.Fatalf("expected ErrAPIBaseURLRequired, got %v", err)
	}
	if _, err := loadConfig([]string{"-unknown"}, envMap(nil)); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}

func TestNewServerUsesModuleHandler(t *testing.T) {
	cfg := blogfront.DefaultConfig()
	module, err := blogfront.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server, err := newServer(cfg, module)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if server.Addr != cfg.HTTP.Addr || server.WriteTimeout != cfg.HTTP.WriteTimeout {
		t.Fatalf("unexpected server settings %+v", server)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/markdown/render", nil)
	server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected mounted render route to reject empty body, got %d", rec.Code)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-addr", "127.0.0.1:0"}, envMap(nil))
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func TestRunReportsBuilderFailure(t *testing.T) {
	original := moduleBuilder
	moduleBuilder = func(blogfront.Config, ...blogfront.Option) (*blogfront.Module, error) {
		return nil, errors.New("boom")
	}
	t.Cleanup(func() { moduleBuilder = original })

	if err := run(context.Background(), nil, envMap(nil)); err == nil {
		t.Fatalf("expected builder failure")
	}
}
