package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field represents a key-value pair for observability.
type Field struct {
	Key   string
	Value interface{}
}

// MetricField represents a key-value pair for logging metrics.
type MetricField struct {
	Key   string
	Value interface{}
}

type ObservabilityContextKey string

const observabilityKey ObservabilityContextKey = "observability_fields"

// WithFields adds a set of observability fields to the context. The parent's
// field slice is copied, never appended to in place: sibling contexts derived
// from the same parent must not share a backing array.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	existingFields := getObservabilityFields(ctx)
	merged := make([]Field, 0, len(existingFields)+len(fields))
	merged = append(merged, existingFields...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, observabilityKey, merged)
}

// Get observability fields from context.
func getObservabilityFields(ctx context.Context) []Field {
	if fields, ok := ctx.Value(observabilityKey).([]Field); ok {
		return fields
	}
	return nil
}

// Merge fields from context and additional metric fields, avoiding duplicates.
func mergeFields(ctx context.Context, fields []MetricField) []zapcore.Field {
	fieldMap := make(map[string]zapcore.Field)

	for _, field := range getObservabilityFields(ctx) {
		fieldMap[field.Key] = zap.Any(field.Key, field.Value)
	}

	for _, field := range fields {
		fieldMap[field.Key] = zap.Any(field.Key, field.Value)
	}

	mergedFields := make([]zapcore.Field, 0, len(fieldMap))
	for _, field := range fieldMap {
		mergedFields = append(mergedFields, field)
	}

	return mergedFields
}

// Middleware to add observability fields to Gin context.
func Middleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Create an initial context with some observability fields.
		ctx := context.Background()
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%s", uuid.New().String())
			c.Request.Header.Set("X-Request-ID", requestID)
		}
		// Add request ID to response headers
		c.Writer.Header().Set("X-Request-ID", requestID)

		ctx = WithFields(ctx,
			Field{"request_id", requestID},
			Field{"path", c.Request.URL.Path},
			Field{"method", c.Request.Method},
			Field{"client_ip", c.ClientIP()},
			Field{"user_agent", c.Request.UserAgent()},
		)

		// Add content length if present
		if c.Request.ContentLength > 0 {
			ctx = WithFields(ctx, Field{"content_length", c.Request.ContentLength})
		}

		// Add query parameters if present (be careful not to log sensitive data)
		if len(c.Request.URL.RawQuery) > 0 {
			ctx = WithFields(ctx, Field{"query_params", c.Request.URL.RawQuery})
		}

		// Store the context in Gin context for later use.
		c.Request = c.Request.WithContext(ctx)

		// Process the request.
		start := time.Now()
		// Capture any panic and handle it.
		defer func() {
			if r := recover(); r != nil {
				// Handle the panic and log the error.
				l.Error(c.Request.Context(), "Recovered from panic", fmt.Errorf("reason: %+v", r))
				c.AbortWithStatus(500) // Respond with a 500 error.
			}

			// Skip additional logging for health check endpoint.
			if c.Request.URL.Path == "/health" {
				return
			}
			// Calculate the request latency.
			latency := time.Since(start)
			// Additional logging after request processing.
			ctx = WithFields(ctx, Field{"latency_ns", latency.Nanoseconds()})
			l.Info(ctx, "Request processed")

			status := c.Writer.Status() // Get the response status code.
			l.Metrics(c.Request.Context(),
				MetricField{"method", c.Request.Method},
				MetricField{"path", c.Request.URL.Path},
				MetricField{"status", status},
				MetricField{"latency", latency},
				MetricField{"request_id", c.Request.Header.Get("X-Request-ID")},
			)
		}()
		c.Next() // Proceed with request handling.
	}
}

// Logger represents a custom logger with Zap integration.
type Logger struct {
	zapLogger *zap.Logger
}

// NewLogger creates a new instance of custom logger.
func NewLogger() *Logger {
	zapLogger, _ := zap.NewProduction()
	zapLogger = zapLogger.WithOptions(zap.AddCallerSkip(1))
	zapLogger = zapLogger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{zapLogger: zapLogger}
}

// Create a logger with fields from context.
func (l *Logger) loggerFromContext(ctx context.Context) *zap.Logger {
	fields := getObservabilityFields(ctx)
	zapFields := make([]zapcore.Field, len(fields))

	for i, f := range fields {
		zapFields[i] = zap.Any(f.Key, f.Value)
	}

	return l.zapLogger.With(zapFields...)
}

// Info logs an informational message with context-based fields.
func (l *Logger) Info(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Info(msg)
}

// Error logs an error message with context-based fields.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.loggerFromContext(ctx).Error(msg, zap.Error(err))
}

// Warn logs a warning message with context-based fields.
func (l *Logger) Warn(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Warn(msg)
}

// Debug logs a debug message with context-based fields.
func (l *Logger) Debug(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Debug(msg)
}

// Fatal logs a fatal message with context-based fields.
func (l *Logger) Fatal(ctx context.Context, msg string, err error) {
	l.loggerFromContext(ctx).Fatal(msg, zap.Error(err))
}

// Metrics logs metrics-related information using custom MetricField type.
func (l *Logger) Metrics(ctx context.Context, fields ...MetricField) {
	mergeFields := mergeFields(ctx, fields)
	l.zapLogger.Info("Metrics", mergeFields...)
}
