// Package logger defines the structured logging interface used across the
// ringbridge service. The production implementation is zap-backed and lives in
// internal/infrastructure/monitoring.
package logger

import (
	"context"
	"strings"
	"time"
)

// Logger is the structured, context-aware logging interface.
type Logger interface {
	Debug(ctx context.Context, message string, fields ...Field)
	Info(ctx context.Context, message string, fields ...Field)
	Warn(ctx context.Context, message string, fields ...Field)
	Error(ctx context.Context, message string, err error, fields ...Field)
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithComponent returns a logger scoped to a named component.
	WithComponent(component string) Logger
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// sensitiveKeys are never logged in clear.
var sensitiveKeys = []string{"password", "secret", "token", "credential", "code"}

// Sanitize masks the value when the key names a secret. Loggers apply it to
// every field so call sites cannot accidentally leak a credential.
func Sanitize(f Field) Field {
	keyLower := strings.ToLower(f.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(keyLower, s) {
			if str, ok := f.Value.(string); ok && str != "" {
				return Field{Key: f.Key, Value: mask(str)}
			}
			return Field{Key: f.Key, Value: "***"}
		}
	}
	return f
}

func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
