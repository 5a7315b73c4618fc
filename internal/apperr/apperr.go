// Package apperr defines the error taxonomy shared by the task-invocation
// core. Every error that crosses a package boundary is classified with a
// Kind so the HTTP layer and the activity recorder can act on it without
// inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	// KindValidation marks malformed or missing required input.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindConfig marks a missing or inconsistent configuration, such as an
	// absent API key or a task name unknown to the default registry.
	KindConfig Kind = "CONFIG_ERROR"
	// KindResponseParse marks AI output that did not parse as JSON per the
	// expected schema. The raw model text is attached for diagnosis.
	KindResponseParse Kind = "RESPONSE_PARSE_ERROR"
	// KindAIProcessing marks a failed call to the generative-AI provider.
	KindAIProcessing Kind = "AI_PROCESSING_ERROR"
	// KindDuplicate marks a uniqueness violation in the config store.
	KindDuplicate Kind = "DUPLICATE"
	// KindNotFound marks a missing document lookup.
	KindNotFound Kind = "NOT_FOUND"
)

// Error is a classified error. RawResponse is populated only for
// KindResponseParse, carrying the unparseable model output verbatim.
type Error struct {
	Kind        Kind
	Message     string
	RawResponse string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// ParseFailure builds a KindResponseParse error carrying the raw model text.
func ParseFailure(cause error, raw string) *Error {
	return &Error{
		Kind:        KindResponseParse,
		Message:     "model response is not valid JSON for the expected schema",
		RawResponse: raw,
		cause:       cause,
	}
}

// KindOf returns the classification of err, or an empty Kind when err is not
// a classified error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RawResponseOf returns the attached raw model output, if any.
func RawResponseOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.RawResponse
	}
	return ""
}
