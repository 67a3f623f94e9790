package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestCtxKey struct{}
type queryCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}
	if query := QueryFromContext(ctx); query != "" {
		fields = append(fields, zap.String("query", query))
	}

	return fields
}

// ContextWithRequestID stores a request ID for log correlation.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext retrieves the request ID, or "" if unset.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// ContextWithQuery stores the active query string for log correlation.
func ContextWithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryCtxKey{}, query)
}

// QueryFromContext retrieves the active query, or "" if unset.
func QueryFromContext(ctx context.Context) string {
	if q, ok := ctx.Value(queryCtxKey{}).(string); ok {
		return q
	}
	return ""
}
