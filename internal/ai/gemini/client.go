// Package gemini implements ai.Generator on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/logger"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultMaxLogLength = 200

// Client wraps the Google GenAI client behind the ai.Generator contract.
type Client struct {
	client    *genai.Client
	logger    *zap.Logger
	maxLogLen int
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string, maxLogLength int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperr.New(apperr.KindConfig, "gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{client: client, logger: log, maxLogLen: maxLogLength}, nil
}

// Generate sends the request to Gemini and returns the concatenated textual
// response of the returned candidates. No retries are attempted: provider
// failures, including rate limits, surface directly to the caller.
func (c *Client) Generate(ctx context.Context, req *ai.Request) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}
	if req == nil {
		return "", errors.New("request is required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", apperr.New(apperr.KindConfig, "model name is required")
	}

	contents := buildContents(req.Turns)
	if len(contents) == 0 {
		return "", errors.New("at least one non-empty turn is required")
	}

	c.logger.Debug("gemini generate content request",
		zap.String(logger.FieldModel, model),
		zap.Int("turns", len(contents)),
		zap.String("last_turn_preview", logger.TruncateForLog(req.Turns[len(req.Turns)-1].Text, c.maxLogLen)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	c.logger.Debug("gemini generate content response",
		zap.String(logger.FieldModel, model),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

// buildContents converts conversation turns to provider contents. The
// assistant role maps to the provider's "model" role.
func buildContents(turns []ai.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}

		role := genai.RoleUser
		if strings.EqualFold(strings.TrimSpace(turn.Role), ai.RoleAssistant) {
			role = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: text}},
		})
	}
	return contents
}

func buildConfig(req *ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if instruction := strings.TrimSpace(req.SystemInstruction); instruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		}
	}

	if req.Params.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Params.Temperature))
	}
	if req.Params.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*req.Params.TopP))
	}
	if req.Params.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*req.Params.TopK))
	}
	if req.Params.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Params.MaxOutputTokens)
	}
	if len(req.Params.StopSequences) > 0 {
		cfg.StopSequences = req.Params.StopSequences
	}

	for _, setting := range req.Safety {
		if strings.TrimSpace(setting.Category) == "" {
			continue
		}
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(setting.Category),
			Threshold: genai.HarmBlockThreshold(setting.Threshold),
		})
	}

	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	return cfg
}
