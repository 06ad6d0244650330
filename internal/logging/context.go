package logging

import "context"

type contextKey string

const (
	contextFieldsKey    contextKey = "blog.logging.fields"
	contextRequestIDKey contextKey = "blog.logging.request_id"
)

// ContextWithFields returns a context carrying structured logging fields that
// console loggers merge into subsequent entries. Existing fields are kept and
// overridden key by key.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}

	existing := ContextFields(ctx)
	merged := make(map[string]any, len(existing)+len(fields))
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields extracts previously annotated logging fields from the context.
// The returned map is a copy.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}

	copied := make(map[string]any, len(fields))
	for key, val := range fields {
		copied[key] = val
	}
	return copied
}

// ContextWithRequestID stores the correlation id of the in-flight API call and
// mirrors it into the logging fields.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, contextRequestIDKey, requestID)
	return ContextWithFields(ctx, map[string]any{fieldRequestID: requestID})
}

// RequestIDFromContext returns the correlation id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextRequestIDKey).(string)
	return id
}
