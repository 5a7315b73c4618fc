// Package intent maps free-text chat messages to task names. Classification
// is a best-effort pre-step: any failure falls back to the GENERAL task and
// never blocks the chat turn.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	fallbackIntent     = "general_query"
	fallbackConfidence = 0.5
	invalidConfidence  = 0.3

	defaultTimeout = 15 * time.Second
	maxHistory     = 10
)

// Result is the outcome of classifying one chat turn. It is ephemeral and
// never persisted.
type Result struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	TaskName   string  `json:"taskName"`
}

// Router classifies chat messages into task names.
type Router struct {
	generator ai.Generator
	resolver  *taskconfig.Resolver
	store     taskconfig.Store
	registry  *taskconfig.Registry
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRouter wires an intent router. A non-positive timeout falls back to 15s.
func NewRouter(generator ai.Generator, resolver *taskconfig.Resolver, store taskconfig.Store, registry *taskconfig.Registry, timeout time.Duration, log *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		generator: generator,
		resolver:  resolver,
		store:     store,
		registry:  registry,
		timeout:   timeout,
		logger:    log,
	}
}

// Classify routes the message to a task name. It always returns a usable
// result: classification errors are logged and mapped to the fixed fallback.
func (r *Router) Classify(ctx context.Context, message string, history []ai.Turn) Result {
	result, err := r.classify(ctx, message, history)
	if err != nil {
		r.logger.Warn("intent classification failed, using fallback",
			zap.String("fallback_task", taskconfig.TaskGeneral),
			zap.Error(err),
		)
		return Result{Intent: fallbackIntent, Confidence: fallbackConfidence, TaskName: taskconfig.TaskGeneral}
	}
	return result
}

func (r *Router) classify(ctx context.Context, message string, history []ai.Turn) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, fmt.Errorf("message is empty")
	}

	cfg, err := r.resolver.Resolve(ctx, taskconfig.TaskDetectIntent)
	if err != nil {
		return Result{}, fmt.Errorf("resolving intent config: %w", err)
	}

	catalogue, active := r.routableTasks(ctx)

	prompt := buildPrompt(catalogue, ai.SanitizeHistory(history), message)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.generator.Generate(callCtx, &ai.Request{
		Model:             cfg.ModelName,
		SystemInstruction: cfg.SystemInstruction,
		Safety:            cfg.Safety,
		Params:            cfg.Generation,
		Schema:            cfg.Schema,
		Turns:             []ai.Turn{{Role: ai.RoleUser, Text: prompt}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent generation: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &result); err != nil {
		return Result{}, fmt.Errorf("parsing intent response %q: %w", raw, err)
	}

	result.TaskName = strings.TrimSpace(result.TaskName)

	if !active[result.TaskName] {
		r.logger.Debug("classified task is not active, overriding to GENERAL",
			zap.String("classified_task", result.TaskName),
			zap.String("intent", result.Intent),
		)
		return Result{
			Intent:     result.Intent,
			Confidence: invalidConfidence,
			TaskName:   taskconfig.TaskGeneral,
		}, nil
	}

	return result, nil
}

// catalogueEntry is one task advertised to the classifier.
type catalogueEntry struct {
	TaskName    string
	Description string
}

// routableTasks computes the routable set fresh on every call: the default
// registry's tasks plus anything with an active stored config. Every member
// of the set appears in the returned catalogue, so a stored task the registry
// does not know is still advertised to the model. A store failure narrows
// the set to the registry rather than failing the turn.
func (r *Router) routableTasks(ctx context.Context) ([]catalogueEntry, map[string]bool) {
	active := make(map[string]bool)
	catalogue := make([]catalogueEntry, 0, len(r.registry.Catalogue()))
	for _, cfg := range r.registry.Catalogue() {
		active[cfg.TaskName] = true
		catalogue = append(catalogue, catalogueEntry{TaskName: cfg.TaskName, Description: cfg.Description})
	}

	stored, err := r.store.ActiveTaskNames(ctx)
	if err != nil {
		r.logger.Warn("listing active task names failed, using registry only", zap.Error(err))
		return catalogue, active
	}

	for _, name := range stored {
		if name == taskconfig.TaskDetectIntent || active[name] {
			continue
		}
		active[name] = true
		catalogue = append(catalogue, catalogueEntry{
			TaskName:    name,
			Description: r.describeStoredTask(ctx, name),
		})
	}

	return catalogue, active
}

// describeStoredTask fetches the active config's description for a task the
// registry does not know. Failures degrade to a generic description rather
// than dropping the task from the catalogue.
func (r *Router) describeStoredTask(ctx context.Context, taskName string) string {
	cfg, err := r.store.FindActiveByTaskName(ctx, taskName)
	if err != nil || strings.TrimSpace(cfg.Description) == "" {
		return "Administrator-defined task."
	}
	return cfg.Description
}

func buildPrompt(catalogue []catalogueEntry, history []ai.Turn, message string) string {
	var tasks strings.Builder
	for _, cfg := range catalogue {
		fmt.Fprintf(&tasks, "- %s: %s\n", cfg.TaskName, cfg.Description)
	}

	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	var turns strings.Builder
	if len(history) == 0 {
		turns.WriteString("(no prior turns)")
	}
	for _, turn := range history {
		fmt.Fprintf(&turns, "%s: %s\n", turn.Role, turn.Text)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{TASK_CATALOGUE}}", strings.TrimSpace(tasks.String()))
	prompt = strings.ReplaceAll(prompt, "{{HISTORY}}", strings.TrimSpace(turns.String()))
	prompt = strings.ReplaceAll(prompt, "{{MESSAGE}}", message)
	return prompt
}
