// Package ai declares the provider-neutral contract between the task
// execution core and a generative-AI backend.
package ai

import (
	"context"

	"google.golang.org/genai"
)

const (
	// RoleUser tags a conversation turn authored by the end user.
	RoleUser = "user"
	// RoleAssistant tags a conversation turn authored by the model.
	RoleAssistant = "assistant"
)

// Turn is one conversation message.
type Turn struct {
	Role string `json:"role" mapstructure:"role"`
	Text string `json:"content" mapstructure:"content"`
}

// GenerationParams are the sampling parameters for one generation call.
// Pointer fields distinguish "unset" from an explicit zero.
type GenerationParams struct {
	Temperature     *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	TopP            *float64 `json:"topP,omitempty" mapstructure:"topP"`
	TopK            *int     `json:"topK,omitempty" mapstructure:"topK"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty" mapstructure:"maxOutputTokens"`
	StopSequences   []string `json:"stopSequences,omitempty" mapstructure:"stopSequences"`
}

// SafetySetting maps a harm category to a block threshold. Values use the
// provider's wire identifiers (for example HARM_CATEGORY_HARASSMENT and
// BLOCK_MEDIUM_AND_ABOVE) so stored configs round-trip without translation.
type SafetySetting struct {
	Category  string `json:"category" mapstructure:"category"`
	Threshold string `json:"threshold" mapstructure:"threshold"`
}

// Request describes one generation call. When Schema is set the provider is
// asked for schema-constrained JSON output.
type Request struct {
	Model             string
	SystemInstruction string
	Safety            []SafetySetting
	Params            GenerationParams
	Schema            *genai.Schema
	Turns             []Turn
}

// Generator executes generation requests against a provider.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}
