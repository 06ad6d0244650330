package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

const (
	rootModule     = "blog"
	apiModule      = "blog.api"
	markdownModule = "blog.markdown"
	httpModule     = "blog.http"
)

const (
	fieldRequestMethod = "method"
	fieldRequestPath   = "path"
	fieldRequestID     = "request_id"
	fieldDocumentPath  = "document"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per module.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// APILogger returns the logger namespace reserved for the backend API client.
func APILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, apiModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// HTTPLogger returns the logger namespace reserved for the site HTTP adapter.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithRequestContext enriches the logger with the fields used to correlate
// client entries with backend logs. Empty values are ignored.
func WithRequestContext(logger interfaces.Logger, method, path, requestID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(method); trimmed != "" {
		fields[fieldRequestMethod] = strings.ToUpper(trimmed)
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldRequestPath] = trimmed
	}
	if trimmed := strings.TrimSpace(requestID); trimmed != "" {
		fields[fieldRequestID] = trimmed
	}
	return WithFields(logger, fields)
}

// WithDocument tags entries with the article source path.
func WithDocument(logger interfaces.Logger, path string) interfaces.Logger {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return WithFields(logger, map[string]any{fieldDocumentPath: trimmed})
	}
	return logger
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
