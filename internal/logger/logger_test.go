package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  gemini  ", "model-v1", "")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "model-v1" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	if empty := CommonFields("", "", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithCommonFields(logger, "gemini", "model-x", "extract_cv")
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}

	if ctx[FieldTask] != "extract_cv" {
		t.Fatalf("expected task field to be extract_cv, got %q", ctx[FieldTask])
	}

	enriched = WithCommonFields(nil, "gemini", "model-x", "")
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}
