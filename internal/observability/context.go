package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	reportIDKey  contextKey = "report_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithReportID adds a report job ID to the context.
func WithReportID(ctx context.Context, reportID string) context.Context {
	return context.WithValue(ctx, reportIDKey, reportID)
}

// ReportIDFromContext retrieves the report job ID from context.
// Returns empty string if not present.
func ReportIDFromContext(ctx context.Context) string {
	if v := ctx.Value(reportIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
