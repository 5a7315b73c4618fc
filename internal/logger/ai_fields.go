package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldTask is the structured log field key for the logical task name.
	FieldTask = "task_name"
)

// CommonFields returns standard zap fields describing an AI invocation.
// Empty values are ignored to keep log entries compact.
func CommonFields(provider, model, taskName string) []zap.Field {
	pairs := []struct{ key, value string }{
		{FieldProvider, provider},
		{FieldModel, model},
		{FieldTask, taskName},
	}

	fields := make([]zap.Field, 0, len(pairs))
	for _, pair := range pairs {
		value := strings.TrimSpace(pair.value)
		if value == "" {
			continue
		}
		fields = append(fields, zap.String(pair.key, value))
	}

	return fields
}

// WithCommonFields attaches the common AI fields to the provided logger.
// A nil logger falls back to a no-op logger to avoid panics.
func WithCommonFields(logger *zap.Logger, provider, model, taskName string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := CommonFields(provider, model, taskName)
	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}
