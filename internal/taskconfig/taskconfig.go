// Package taskconfig holds the configuration model for AI-assisted tasks:
// stored configs, the hardcoded default registry, and the resolver that
// merges the two into the effective configuration for a task.
package taskconfig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
)

// Known task names. These key the default registry, stored configs,
// knowledge entries and intent-routing results alike.
const (
	TaskGeneral               = "GENERAL"
	TaskChatbot               = "chatbot"
	TaskExtractCV             = "extract_cv"
	TaskExtractJobDescription = "extract_job_description"
	TaskPreprocess            = "preprocess"
	TaskMatchResume           = "match_resume"
	TaskResumeTips            = "resume_tips"
	TaskDetectIntent          = "detect_intent"
)

// Knowledge entry types.
const (
	KnowledgeGeneral  = "GENERAL"
	KnowledgeSpecific = "SPECIFIC"
)

// TaskConfig is a stored, administrator-managed configuration for one task.
// At most one config per TaskName may be active at a time; the store
// enforces that invariant atomically on activation.
type TaskConfig struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	TaskName          string             `json:"taskName"`
	Description       string             `json:"description,omitempty"`
	ModelName         string             `json:"modelName"`
	SystemInstruction string             `json:"systemInstruction,omitempty"`
	Generation        GenerationOverride `json:"generationConfig"`
	Safety            []ai.SafetySetting `json:"safetySettings,omitempty"`
	IsActive          bool               `json:"isActive"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// GenerationOverride is the stored generation config. Every field is
// optional; set fields overlay the default generation parameters during
// resolution. ResponseSchema is accepted on write for round-tripping but is
// never honored by the resolver: the canonical schema always comes from the
// default registry.
type GenerationOverride struct {
	Temperature     *float64       `json:"temperature,omitempty" mapstructure:"temperature"`
	TopP            *float64       `json:"topP,omitempty" mapstructure:"topP"`
	TopK            *int           `json:"topK,omitempty" mapstructure:"topK"`
	MaxOutputTokens *int           `json:"maxOutputTokens,omitempty" mapstructure:"maxOutputTokens"`
	StopSequences   []string       `json:"stopSequences,omitempty" mapstructure:"stopSequences"`
	ResponseSchema  map[string]any `json:"responseSchema,omitempty" mapstructure:"responseSchema"`
}

// Validate checks the fields required to store a config.
func (c *TaskConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.New(apperr.KindValidation, "config name is required")
	}
	if strings.TrimSpace(c.TaskName) == "" {
		return apperr.New(apperr.KindValidation, "taskName is required")
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return apperr.New(apperr.KindValidation, "modelName is required")
	}
	return nil
}

// KnowledgeEntry is a stored snippet of reference text or Q&A used to ground
// a task's prompt. Entries of type GENERAL must use the GENERAL task name;
// SPECIFIC entries must not.
type KnowledgeEntry struct {
	ID        string    `json:"id"`
	TaskName  string    `json:"taskName"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate enforces the type/taskName pairing invariant.
func (e *KnowledgeEntry) Validate() error {
	if strings.TrimSpace(e.Content) == "" {
		return apperr.New(apperr.KindValidation, "knowledge content is required")
	}

	switch e.Type {
	case KnowledgeGeneral:
		if e.TaskName != TaskGeneral {
			return apperr.New(apperr.KindValidation,
				"GENERAL knowledge entries must use taskName %q, got %q", TaskGeneral, e.TaskName)
		}
	case KnowledgeSpecific:
		if e.TaskName == TaskGeneral {
			return apperr.New(apperr.KindValidation,
				"SPECIFIC knowledge entries must not use taskName %q", TaskGeneral)
		}
		if strings.TrimSpace(e.TaskName) == "" {
			return apperr.New(apperr.KindValidation, "SPECIFIC knowledge entries require a taskName")
		}
	default:
		return apperr.New(apperr.KindValidation,
			"knowledge type must be %s or %s, got %q", KnowledgeGeneral, KnowledgeSpecific, e.Type)
	}

	return nil
}

// Store is the resolver's read-only view of the config store.
type Store interface {
	// FindActiveByTaskName returns the single active config for the task,
	// or a NOT_FOUND error when none is active.
	FindActiveByTaskName(ctx context.Context, taskName string) (*TaskConfig, error)
	// ActiveTaskNames lists task names that currently have an active config.
	ActiveTaskNames(ctx context.Context) ([]string, error)
}

func (c *TaskConfig) String() string {
	return fmt.Sprintf("%s (task=%s, model=%s, active=%t)", c.Name, c.TaskName, c.ModelName, c.IsActive)
}
