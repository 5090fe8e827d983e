package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across syncproto.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldSessionID = "session_id"
	FieldPeerID    = "peer_id"
	FieldTraceID   = "trace_id"

	// Operations
	FieldOperation = "operation"
	FieldMsgType   = "message_type"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorCode = "error_code"

	// Counts and sizes
	FieldCount      = "count"
	FieldSize       = "size"
	FieldSentCount  = "sent_count"
	FieldRecvCount  = "recv_count"
	FieldHeadsCount = "heads_count"
	FieldNeedCount  = "need_count"

	// Status
	FieldStatus = "status"
)

// Context keys for propagating logging context.
type contextKey string

const (
	sessionIDKey contextKey = "logger_session_id"
	traceIDKey   contextKey = "logger_trace_id"
)

// WithSessionID adds a sync session ID to the context for logging.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithTraceID adds a trace ID to the context for logging.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok && sessionID != "" {
		fields = append(fields, FieldSessionID, sessionID)
	}
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		fields = append(fields, FieldTraceID, traceID)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
