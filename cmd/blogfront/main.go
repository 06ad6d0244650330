package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	blogfront "github.com/goliatone/go-blogfront"
)

const shutdownTimeout = 10 * time.Second

var moduleBuilder = blogfront.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.LookupEnv); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, lookup func(string) (string, bool)) error {
	cfg, err := loadConfig(args, lookup)
	if err != nil {
		return err
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("initialise blog module: %w", err)
	}
	server, err := newServer(cfg, module)
	if err != nil {
		return err
	}

	logger := module.Logger("blog.cmd")
	errCh := make(chan error, 1)
	go func() {
		logger.Info("blog.server.listening", "addr", server.Addr, "api", cfg.API.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("blog.server.shutdown")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadConfig layers command line flags over BLOG_* environment variables.
func loadConfig(args []string, lookup func(string) (string, bool)) (blogfront.Config, error) {
	cfg, err := blogfront.ConfigFromEnv(lookup)
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("blogfront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		addr       = fs.String("addr", cfg.HTTP.Addr, "Address the site HTTP server listens on")
		apiBase    = fs.String("api", cfg.API.BaseURL, "Base URL of the blog backend API")
		basePath   = fs.String("base-path", cfg.HTTP.BasePath, "Path prefix for the site routes")
		contentDir = fs.String("content-dir", "", "Serve markdown files from this directory under <base-path>/local/")
		logLevel   = fs.String("log-level", "", "Enable logging at the given level")
		retries    = fs.Int("retries", cfg.API.Retry.MaxAttempts, "Attempts for retryable article loads")
	)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.HTTP.Addr = *addr
	cfg.API.BaseURL = *apiBase
	cfg.HTTP.BasePath = *basePath
	cfg.API.Retry.MaxAttempts = *retries
	if *contentDir != "" {
		cfg.Markdown.ContentDir = *contentDir
		cfg.Markdown.Enabled = true
		cfg.Features.Markdown = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
		cfg.Features.Logger = true
	}
	return cfg, cfg.Validate()
}

func newServer(cfg blogfront.Config, module *blogfront.Module) (*http.Server, error) {
	handler, err := module.Handler()
	if err != nil {
		return nil, fmt.Errorf("site handler: %w", err)
	}
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}, nil
}
