package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String renders the severity label used in console output.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel maps configuration strings ("debug", "warning", ...) onto a Level.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Options configures the console logger provider. Zero values write to
// stdout at DEBUG and above using time.Now.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

// Provider writes one line per entry to a shared writer.
type Provider struct {
	writer   io.Writer
	clock    func() time.Time
	minLevel Level
	mu       sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider constructs a console-backed logger provider.
func NewProvider(opts Options) *Provider {
	p := &Provider{
		writer:   opts.Writer,
		clock:    opts.TimeFunc,
		minLevel: LevelDebug,
	}
	if p.writer == nil {
		p.writer = os.Stdout
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if opts.MinLevel != nil {
		p.minLevel = *opts.MinLevel
	}
	return p
}

// GetLogger returns a logger whose entries are tagged with name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &consoleLogger{provider: p, name: strings.TrimSpace(name)}
}

func (p *Provider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// best effort, a failing writer must not break the caller
	_, _ = io.WriteString(p.writer, line)
}

type consoleLogger struct {
	provider *Provider
	name     string
	fields   map[string]any
	ctx      context.Context
}

var (
	_ interfaces.Logger       = (*consoleLogger)(nil)
	_ interfaces.FieldsLogger = (*consoleLogger)(nil)
)

func (l *consoleLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *consoleLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *consoleLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *consoleLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	child := l.clone()
	if child.fields == nil {
		child.fields = make(map[string]any, len(fields))
	}
	for key, value := range fields {
		child.fields[key] = value
	}
	return child
}

func (l *consoleLogger) WithContext(ctx context.Context) interfaces.Logger {
	child := l.clone()
	child.ctx = ctx
	return child
}

func (l *consoleLogger) clone() *consoleLogger {
	copied := &consoleLogger{provider: l.provider, name: l.name, ctx: l.ctx}
	if len(l.fields) > 0 {
		copied.fields = make(map[string]any, len(l.fields))
		for key, value := range l.fields {
			copied.fields[key] = value
		}
	}
	return copied
}

func (l *consoleLogger) log(level Level, msg string, args []any) {
	if l.provider == nil || level < l.provider.minLevel {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2+2)
	for key, value := range l.fields {
		fields[key] = value
	}
	for key, value := range logging.ContextFields(l.ctx) {
		fields[key] = value
	}
	mergeArgs(fields, args)

	l.provider.write(formatEntry(l.provider.clock().UTC(), level, l.name, msg, fields) + "\n")
}

// mergeArgs folds key/value pairs into fields. A dangling value or a
// non-string key is kept under a positional arg_N key.
func mergeArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			fields["arg_"+strconv.Itoa(i/2)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i/2)
		}
		fields[key] = args[i+1]
	}
}

func formatEntry(ts time.Time, level Level, name, msg string, fields map[string]any) string {
	var builder strings.Builder
	builder.Grow(64 + len(msg) + len(fields)*16)
	builder.WriteString(ts.Format(time.RFC3339Nano))
	builder.WriteByte(' ')
	builder.WriteString(level.String())
	if name != "" {
		builder.WriteString(" [")
		builder.WriteString(name)
		builder.WriteByte(']')
	}
	builder.WriteByte(' ')
	builder.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		builder.WriteByte(' ')
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(formatValue(fields[key]))
	}
	return builder.String()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quoteIfNeeded(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case error:
		return quoteIfNeeded(v.Error())
	case fmt.Stringer:
		return quoteIfNeeded(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return quoteIfNeeded(fmt.Sprint(v))
	}
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= 0x20 || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
