package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyDocument  contextKey = "document"
	ContextKeyForce     contextKey = "force"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithDocument tags the context with the filename being processed.
func WithDocument(ctx context.Context, filename string) context.Context {
	return context.WithValue(ctx, ContextKeyDocument, filename)
}

// DocumentFromContext returns the filename set by WithDocument.
func DocumentFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyDocument).(string); ok {
		return name
	}
	return ""
}

// WithForce marks the context so already recorded documents are processed again.
func WithForce(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyForce, true)
}

// ForceFromContext reports whether WithForce was applied.
func ForceFromContext(ctx context.Context) bool {
	force, _ := ctx.Value(ContextKeyForce).(bool)
	return force
}
