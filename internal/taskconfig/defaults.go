package taskconfig

import (
	"sort"

	"github.com/cvforge/cvforge/internal/ai"
	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-flash"

// DefaultSystemInstruction steers any task whose stored config does not
// supply its own instruction.
const DefaultSystemInstruction = "You are the AI assistant of a resume-building application. " +
	"You help users write, analyze and improve CVs, resumes and job applications. " +
	"Always answer in the exact JSON structure you are asked for, with no extra commentary."

// DefaultSafetySettings is the process-wide fallback safety configuration.
func DefaultSafetySettings() []ai.SafetySetting {
	return []ai.SafetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	}
}

// DefaultConfig is one immutable entry of the fallback table. It doubles as
// the authority for the task's canonical response schema.
type DefaultConfig struct {
	TaskName          string
	Description       string
	ModelName         string
	SystemInstruction string
	Generation        ai.GenerationParams
	Safety            []ai.SafetySetting
	Schema            *genai.Schema
	// Routable marks tasks the intent router may classify a chat message
	// into. Internal tasks such as detect_intent are excluded.
	Routable bool
}

// Registry is the process-wide table of hardcoded default configurations.
// Immutable after construction.
type Registry struct {
	byTask map[string]DefaultConfig
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// NewRegistry builds the default configuration table for every known task.
func NewRegistry() *Registry {
	extraction := ai.GenerationParams{
		Temperature:     floatPtr(0.2),
		TopP:            floatPtr(0.9),
		TopK:            intPtr(40),
		MaxOutputTokens: 8192,
	}

	entries := []DefaultConfig{
		{
			TaskName:    TaskGeneral,
			Description: "General questions about the application, resume writing advice, and anything that fits no other task.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.7), TopP: floatPtr(0.95), MaxOutputTokens: 2048},
			Schema:      chatSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskChatbot,
			Description: "Conversational assistant turns inside the resume builder chat.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.7), TopP: floatPtr(0.95), MaxOutputTokens: 2048},
			Schema:      chatSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskExtractCV,
			Description: "Extract structured CV data (contact info, headline, experience, education, skills) from raw resume text.",
			Generation:  extraction,
			Schema:      cvSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskExtractJobDescription,
			Description: "Extract structured job posting data (position, level, requirements, benefits) from raw job description text.",
			Generation:  extraction,
			Schema:      jobDescriptionSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskPreprocess,
			Description: "Clean up pasted text and detect whether it is a CV, a job description, or something else.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.1), TopP: floatPtr(0.9), MaxOutputTokens: 8192},
			Schema:      preprocessSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskMatchResume,
			Description: "Score how well a resume matches a job description, listing strengths and gaps.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.3), TopP: floatPtr(0.9), MaxOutputTokens: 4096},
			Schema:      matchResumeSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskResumeTips,
			Description: "Suggest concrete improvements for a resume, optionally targeted at a specific role.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.5), TopP: floatPtr(0.95), MaxOutputTokens: 4096},
			Schema:      resumeTipsSchema(),
			Routable:    true,
		},
		{
			TaskName:    TaskDetectIntent,
			Description: "Classify a chat message into one of the known task names.",
			Generation:  ai.GenerationParams{Temperature: floatPtr(0.1), MaxOutputTokens: 256},
			Schema:      intentSchema(),
		},
	}

	byTask := make(map[string]DefaultConfig, len(entries))
	for _, entry := range entries {
		entry.ModelName = defaultModel
		entry.SystemInstruction = DefaultSystemInstruction
		entry.Safety = DefaultSafetySettings()
		byTask[entry.TaskName] = entry
	}

	return &Registry{byTask: byTask}
}

// Lookup returns the default configuration for a task.
func (r *Registry) Lookup(taskName string) (DefaultConfig, bool) {
	cfg, ok := r.byTask[taskName]
	return cfg, ok
}

// TaskNames returns every known task name, sorted for stable output.
func (r *Registry) TaskNames() []string {
	names := make([]string, 0, len(r.byTask))
	for name := range r.byTask {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalogue returns the routable tasks with their descriptions, sorted by
// task name. The intent router embeds this in its classification prompt.
func (r *Registry) Catalogue() []DefaultConfig {
	tasks := make([]DefaultConfig, 0, len(r.byTask))
	for _, cfg := range r.byTask {
		if cfg.Routable {
			tasks = append(tasks, cfg)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskName < tasks[j].TaskName })
	return tasks
}
