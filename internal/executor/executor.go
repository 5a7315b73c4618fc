// Package executor runs AI-assisted tasks: it resolves the task's effective
// configuration, assembles the prompt, invokes the generative model, parses
// the structured response and applies task-specific repair.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cvforge/cvforge/internal/activity"
	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/logger"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"go.uber.org/zap"
)

const defaultTimeout = 45 * time.Second

// KnowledgeSource retrieves active knowledge entries for a task, sorted by
// priority descending then recency descending.
type KnowledgeSource interface {
	ActiveForTask(ctx context.Context, taskName string) ([]taskconfig.KnowledgeEntry, error)
}

// Input carries the task-specific payload. Which fields are required
// depends on the task.
type Input struct {
	Text               string    `json:"text"`
	CVText             string    `json:"cvText"`
	JobDescriptionText string    `json:"jobDescriptionText"`
	Message            string    `json:"message"`
	History            []ai.Turn `json:"history"`
	TargetRole         string    `json:"targetRole"`
}

// Result is a parsed task outcome.
type Result struct {
	TaskName  string         `json:"taskName"`
	ModelName string         `json:"modelName"`
	Data      map[string]any `json:"data"`
	Raw       string         `json:"-"`
}

// Executor orchestrates one task invocation end to end.
type Executor struct {
	generator ai.Generator
	resolver  *taskconfig.Resolver
	knowledge KnowledgeSource
	recorder  *activity.Recorder
	timeout   time.Duration
	logger    *zap.Logger
}

// New wires an executor. A non-positive timeout falls back to 45s. The
// knowledge source may be nil, in which case prompts carry no reference
// knowledge.
func New(generator ai.Generator, resolver *taskconfig.Resolver, knowledge KnowledgeSource, recorder *activity.Recorder, timeout time.Duration, log *zap.Logger) *Executor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = activity.NewRecorder(nil, log)
	}
	return &Executor{
		generator: generator,
		resolver:  resolver,
		knowledge: knowledge,
		recorder:  recorder,
		timeout:   timeout,
		logger:    log,
	}
}

// Run executes the task and records the outcome in the activity log. Every
// error is classified; recording failures never mask the primary error.
func (e *Executor) Run(ctx context.Context, taskName string, in Input) (*Result, error) {
	result, err := e.run(ctx, taskName, in)
	if err != nil {
		e.recorder.Record(ctx, taskName, "", false, err.Error())
		return nil, err
	}

	e.recorder.Record(ctx, taskName, summarize(taskName, result.Data), true, "")
	return result, nil
}

func (e *Executor) run(ctx context.Context, taskName string, in Input) (*Result, error) {
	if err := validateInput(taskName, in); err != nil {
		return nil, err
	}

	cfg, err := e.resolver.Resolve(ctx, taskName)
	if err != nil {
		return nil, err
	}

	log := logger.WithCommonFields(e.logger, "gemini", cfg.ModelName, taskName)

	knowledge := e.fetchKnowledge(ctx, taskName, log)

	req := &ai.Request{
		Model:             cfg.ModelName,
		SystemInstruction: cfg.SystemInstruction,
		Safety:            cfg.Safety,
		Params:            cfg.Generation,
		Schema:            cfg.Schema,
		Turns:             buildTurns(taskName, in, knowledge),
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log.Debug("running task", zap.String("config_source", cfg.Source), zap.Int("knowledge_entries", len(knowledge)))

	raw, err := e.generator.Generate(callCtx, req)
	if err != nil {
		if kind := apperr.KindOf(err); kind != "" {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindAIProcessing, err, "task %q generation failed", taskName)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &data); err != nil {
		return nil, apperr.ParseFailure(err, raw)
	}

	if taskName == taskconfig.TaskExtractCV {
		data = RepairCVExtraction(data)
	}

	return &Result{
		TaskName:  taskName,
		ModelName: cfg.ModelName,
		Data:      data,
		Raw:       raw,
	}, nil
}

// buildTurns prepares the provider conversation. Chat tasks replay the
// prior turns (with any leading assistant turn dropped) and append the new
// message; extraction tasks send one self-contained user turn.
func buildTurns(taskName string, in Input, knowledge []taskconfig.KnowledgeEntry) []ai.Turn {
	if !isChatTask(taskName) {
		return []ai.Turn{{Role: ai.RoleUser, Text: buildSingleShotPrompt(taskName, in, knowledge)}}
	}

	turns := ai.SanitizeHistory(in.History)

	message := strings.TrimSpace(in.Message)
	if block := knowledgeBlock(knowledge); block != "" {
		message = block + "\n\nUSER MESSAGE:\n" + message
	}

	return append(turns, ai.Turn{Role: ai.RoleUser, Text: message})
}

func isChatTask(taskName string) bool {
	return taskName == taskconfig.TaskChatbot || taskName == taskconfig.TaskGeneral
}

func (e *Executor) fetchKnowledge(ctx context.Context, taskName string, log *zap.Logger) []taskconfig.KnowledgeEntry {
	if e.knowledge == nil {
		return nil
	}

	entries, err := e.knowledge.ActiveForTask(ctx, taskName)
	if err != nil {
		// Knowledge is enrichment; a store failure must not fail the task.
		log.Warn("loading knowledge entries failed", zap.Error(err))
		return nil
	}
	return entries
}

func validateInput(taskName string, in Input) error {
	switch taskName {
	case taskconfig.TaskExtractCV, taskconfig.TaskExtractJobDescription, taskconfig.TaskPreprocess:
		if strings.TrimSpace(in.Text) == "" {
			return apperr.New(apperr.KindValidation, "task %q requires a non-empty text field", taskName)
		}
	case taskconfig.TaskMatchResume:
		if strings.TrimSpace(in.CVText) == "" || strings.TrimSpace(in.JobDescriptionText) == "" {
			return apperr.New(apperr.KindValidation, "task %q requires cvText and jobDescriptionText", taskName)
		}
	case taskconfig.TaskResumeTips:
		if strings.TrimSpace(in.CVText) == "" {
			return apperr.New(apperr.KindValidation, "task %q requires a non-empty cvText field", taskName)
		}
	case taskconfig.TaskChatbot, taskconfig.TaskGeneral:
		if strings.TrimSpace(in.Message) == "" {
			return apperr.New(apperr.KindValidation, "task %q requires a non-empty message", taskName)
		}
	}
	return nil
}

// summarize produces the short activity-log detail for a successful run.
func summarize(taskName string, data map[string]any) string {
	pick := func(keys ...string) string {
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			if value, ok := data[key]; ok {
				parts = append(parts, fmt.Sprintf("%s=%v", key, value))
			}
		}
		return strings.Join(parts, ", ")
	}

	switch taskName {
	case taskconfig.TaskExtractCV:
		detail := pick("professionalHeadline")
		if experience, ok := data["experience"].([]any); ok {
			detail += fmt.Sprintf(", experience_entries=%d", len(experience))
		}
		return detail
	case taskconfig.TaskExtractJobDescription:
		return pick("position", "companyName", "jobLevel")
	case taskconfig.TaskMatchResume:
		return pick("matchScore", "verdict")
	case taskconfig.TaskPreprocess:
		return pick("documentType", "language")
	default:
		return fmt.Sprintf("fields=%d", len(data))
	}
}
