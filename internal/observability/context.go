package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
)

const (
	// TraceIDKey holds the OpenTelemetry trace ID.
	TraceIDKey contextKey = "trace_id"

	// RequestIDKey holds the unique request identifier.
	RequestIDKey contextKey = "request_id"

	// QuoteIDKey holds the quote identifier for this operation.
	QuoteIDKey contextKey = "quote_id"

	// QuoteNoKey holds the human-readable quote number.
	QuoteNoKey contextKey = "quote_no"

	// OperationKey holds the name of the mutation being executed.
	OperationKey contextKey = "operation"
)

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithQuoteID injects the quote identifier into context.
func WithQuoteID(ctx context.Context, quoteID string) context.Context {
	return context.WithValue(ctx, QuoteIDKey, quoteID)
}

// WithQuoteNo injects the quote number into context.
func WithQuoteNo(ctx context.Context, quoteNo string) context.Context {
	return context.WithValue(ctx, QuoteNoKey, quoteNo)
}

// WithOperation injects the operation name into context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetQuoteID extracts the quote identifier from context.
func GetQuoteID(ctx context.Context) string {
	if quoteID, ok := ctx.Value(QuoteIDKey).(string); ok {
		return quoteID
	}
	return ""
}

// GetQuoteNo extracts the quote number from context.
func GetQuoteNo(ctx context.Context) string {
	if quoteNo, ok := ctx.Value(QuoteNoKey).(string); ok {
		return quoteNo
	}
	return ""
}

// GetOperation extracts the operation name from context.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(OperationKey).(string); ok {
		return op
	}
	return ""
}

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	bytes := make([]byte, traceIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(bytes)
}

// GenerateRequestID generates a unique request identifier.
func GenerateRequestID() string {
	return uuid.New().String()
}

// BeginOperation stamps the context with a fresh trace ID, a request ID and the
// operation name. Called once at every service entry point.
func BeginOperation(ctx context.Context, operation string) context.Context {
	ctx = WithTraceID(ctx, GenerateTraceID())
	ctx = WithRequestID(ctx, GenerateRequestID())
	return WithOperation(ctx, operation)
}
