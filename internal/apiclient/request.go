package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation id on every outgoing request.
const HeaderRequestID = "X-Request-ID"

// Request describes a single API call.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

func (r Request) method() string {
	if m := strings.ToUpper(strings.TrimSpace(r.Method)); m != "" {
		return m
	}
	return http.MethodGet
}

// RequestContext is the metadata of one in-flight call. Status is written
// once, after the response arrives.
type RequestContext struct {
	Path      string
	Method    string
	RequestID string
	Status    int
	StartedAt time.Time
}

type requestContextKey struct{}

func withRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext of the call that owns ctx.
// Custom transports (WithHTTPClient) can use it to tag their own telemetry.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok && rc != nil
}

// RequestIDGenerator produces correlation ids.
type RequestIDGenerator func(now time.Time) string

// NewRequestID returns an id shaped req_<unix-millis>_<random>.
func NewRequestID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "req_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + random[:9]
}
