package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// FromContext returns the request logger, or a default-backed one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return FromSlog(slog.Default(), "unknown")
}

// StructuredLogger emits the recurring request and ledger events.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.LogFields(ctx, level, "HTTP request completed", fields)
}

// LogRecordChanged logs a committed add or delete.
func (sl *StructuredLogger) LogRecordChanged(ctx context.Context, op, kind, dateKey string, index int, itemName string) {
	fields := NewFields().
		WithRecord(kind, dateKey, index, itemName).
		WithOperation(op)

	sl.logger.LogFields(ctx, slog.LevelInfo, "Ledger record "+op, fields)
}

// LogError logs err with operation context and any extra fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.LogFields(ctx, slog.LevelError, msg, fields.WithError(err).WithOperation(operation))
}
