package bootstrap

import (
	"fmt"
	"strings"

	blogfront "github.com/goliatone/go-blogfront"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// Options captures configuration for markdown CLI bootstraps.
type Options struct {
	ContentDir     string
	Pattern        string
	Recursive      bool
	EmbedHosts     []string
	SafeMode       bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the blog module and the configured markdown service/logger.
type Module struct {
	Module  *blogfront.Module
	Service interfaces.MarkdownService
	Logger  interfaces.Logger
}

// BuildModule constructs a blog module configured for local article rendering.
func BuildModule(opts Options) (*Module, error) {
	cfg := blogfront.DefaultConfig()
	cfg.Features.Markdown = true
	cfg.Markdown.Enabled = true
	cfg.Markdown.ContentDir = strings.TrimSpace(opts.ContentDir)
	if cfg.Markdown.ContentDir == "" {
		cfg.Markdown.ContentDir = "content"
	}
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		cfg.Markdown.Pattern = trimmed
	}
	cfg.Markdown.Recursive = opts.Recursive
	if len(opts.EmbedHosts) > 0 {
		cfg.Markdown.EmbedHosts = cloneStrings(opts.EmbedHosts)
	}
	cfg.Markdown.Parser.SafeMode = opts.SafeMode

	moduleOpts := []blogfront.Option{}
	if opts.LoggerProvider != nil {
		moduleOpts = append(moduleOpts, blogfront.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := blogfront.New(cfg, moduleOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}

	service := module.Markdown()
	if service == nil {
		return nil, fmt.Errorf("markdown service not configured; ensure markdown feature is enabled")
	}

	return &Module{
		Module:  module,
		Service: service,
		Logger:  module.Logger("blog.markdown.cli"),
	}, nil
}

// SplitList parses a comma separated list into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
