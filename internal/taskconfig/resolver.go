package taskconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// EffectiveConfig is the result of resolving a task name: the stored active
// config overlaid on the defaults, with the canonical schema enforced.
type EffectiveConfig struct {
	TaskName          string
	ModelName         string
	SystemInstruction string
	Generation        ai.GenerationParams
	Safety            []ai.SafetySetting
	Schema            *genai.Schema
	// Source names where the config came from: "default" or the stored
	// config's name. Used only for logging.
	Source string
}

// Resolver produces effective configurations. It is read-only and safe for
// concurrent use.
type Resolver struct {
	store    Store
	registry *Registry
	logger   *zap.Logger
}

// NewResolver wires a resolver over the config store and default registry.
func NewResolver(store Store, registry *Registry, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, registry: registry, logger: log}
}

// Resolve returns the effective configuration for the task. A task name
// unknown to both the registry and the store is a configuration error and
// fatal for the request.
func (r *Resolver) Resolve(ctx context.Context, taskName string) (*EffectiveConfig, error) {
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return nil, apperr.New(apperr.KindValidation, "task name is required")
	}

	def, known := r.registry.Lookup(taskName)

	stored, err := r.store.FindActiveByTaskName(ctx, taskName)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, fmt.Errorf("looking up active config for task %q: %w", taskName, err)
	}

	if stored == nil {
		if !known {
			return nil, apperr.New(apperr.KindConfig, "task %q has no default and no stored configuration", taskName)
		}
		return &EffectiveConfig{
			TaskName:          taskName,
			ModelName:         def.ModelName,
			SystemInstruction: def.SystemInstruction,
			Generation:        def.Generation,
			Safety:            def.Safety,
			Schema:            def.Schema,
			Source:            "default",
		}, nil
	}

	if !known {
		// A stored config for a task the registry has never heard of. It can
		// still run, but without a canonical schema the output is unparsed
		// prose; keep it working and make the situation visible.
		r.logger.Warn("stored config references a task unknown to the default registry",
			zap.String("task_name", taskName),
			zap.String("config_name", stored.Name),
		)
	}

	effective := &EffectiveConfig{
		TaskName:          taskName,
		ModelName:         stored.ModelName,
		SystemInstruction: stored.SystemInstruction,
		Generation:        mergeGeneration(def.Generation, stored.Generation),
		Safety:            stored.Safety,
		Schema:            def.Schema,
		Source:            stored.Name,
	}

	if strings.TrimSpace(effective.ModelName) == "" {
		effective.ModelName = def.ModelName
	}
	if strings.TrimSpace(effective.SystemInstruction) == "" {
		effective.SystemInstruction = DefaultSystemInstruction
	}
	if len(effective.Safety) == 0 {
		effective.Safety = DefaultSafetySettings()
	}

	return effective, nil
}

// mergeGeneration overlays the stored override on the default parameters.
// The stored responseSchema field is deliberately ignored: the schema
// defines the parsing contract and only the registry supplies it.
func mergeGeneration(def ai.GenerationParams, override GenerationOverride) ai.GenerationParams {
	merged := def

	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.TopK != nil {
		merged.TopK = override.TopK
	}
	if override.MaxOutputTokens != nil {
		merged.MaxOutputTokens = *override.MaxOutputTokens
	}
	if len(override.StopSequences) > 0 {
		merged.StopSequences = override.StopSequences
	}

	return merged
}
