package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response    string
	err         error
	lastRequest *ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req *ai.Request) (string, error) {
	s.lastRequest = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubStore struct {
	active  []string
	configs map[string]*taskconfig.TaskConfig
	err     error
}

func (s *stubStore) FindActiveByTaskName(_ context.Context, taskName string) (*taskconfig.TaskConfig, error) {
	if cfg, ok := s.configs[taskName]; ok {
		return cfg, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "no active config for task %q", taskName)
}

func (s *stubStore) ActiveTaskNames(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.active, nil
}

func newTestRouter(gen ai.Generator, store taskconfig.Store) *Router {
	registry := taskconfig.NewRegistry()
	resolver := taskconfig.NewResolver(store, registry, zap.NewNop())
	return NewRouter(gen, resolver, store, registry, 0, zap.NewNop())
}

func TestClassifyRoutesToKnownTask(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "extract_resume_data", "confidence": 0.95, "taskName": "extract_cv"}`}
	router := newTestRouter(stub, &stubStore{})

	result := router.Classify(context.Background(), "Here is my CV, pull out my work history", nil)

	if result.TaskName != taskconfig.TaskExtractCV {
		t.Fatalf("expected extract_cv, got %q", result.TaskName)
	}
	if result.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", result.Confidence)
	}

	if stub.lastRequest == nil || stub.lastRequest.Schema == nil {
		t.Fatalf("expected a schema-constrained request")
	}
	if stub.lastRequest.Params.Temperature == nil || *stub.lastRequest.Params.Temperature != 0.1 {
		t.Fatalf("expected the low-temperature intent config")
	}
}

func TestClassifyOverridesInvalidTaskName(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "book_flight", "confidence": 0.8, "taskName": "travel_booking"}`}
	router := newTestRouter(stub, &stubStore{})

	result := router.Classify(context.Background(), "book me a flight", nil)

	if result.TaskName != taskconfig.TaskGeneral {
		t.Fatalf("expected GENERAL, got %q", result.TaskName)
	}
	if result.Confidence != invalidConfidence {
		t.Fatalf("expected confidence %v, got %v", invalidConfidence, result.Confidence)
	}
	if result.Intent != "book_flight" {
		t.Fatalf("expected the original intent to survive, got %q", result.Intent)
	}
}

func TestClassifyFallsBackOnGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("deadline exceeded")}
	router := newTestRouter(stub, &stubStore{})

	result := router.Classify(context.Background(), "hello", nil)

	if result.TaskName != taskconfig.TaskGeneral {
		t.Fatalf("expected GENERAL, got %q", result.TaskName)
	}
	if result.Intent != fallbackIntent || result.Confidence != fallbackConfidence {
		t.Fatalf("expected fixed fallback, got %+v", result)
	}
}

func TestClassifyFallsBackOnMalformedJSON(t *testing.T) {
	stub := &stubGenerator{response: "I think this is about resumes"}
	router := newTestRouter(stub, &stubStore{})

	result := router.Classify(context.Background(), "hello", nil)

	if result.TaskName != taskconfig.TaskGeneral || result.Intent != fallbackIntent {
		t.Fatalf("expected fixed fallback, got %+v", result)
	}
}

func TestClassifyDropsLeadingAssistantTurn(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "general_query", "confidence": 0.9, "taskName": "GENERAL"}`}
	router := newTestRouter(stub, &stubStore{})

	history := []ai.Turn{
		{Role: ai.RoleAssistant, Text: "Welcome! How can I help?"},
		{Role: ai.RoleUser, Text: "What can you do?"},
	}

	router.Classify(context.Background(), "tell me more", history)

	prompt := stub.lastRequest.Turns[0].Text
	if strings.Contains(prompt, "Welcome! How can I help?") {
		t.Fatalf("expected the leading assistant turn to be dropped from the prompt")
	}
	if !strings.Contains(prompt, "user: What can you do?") {
		t.Fatalf("expected the user turn in the prompt, got:\n%s", prompt)
	}
}

func TestClassifyTreatsInactiveStoreAsRegistryOnly(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "match", "confidence": 0.9, "taskName": "match_resume"}`}
	router := newTestRouter(stub, &stubStore{err: errors.New("db down")})

	result := router.Classify(context.Background(), "compare my resume to this job", nil)

	// match_resume is in the registry, so a store outage must not reroute it.
	if result.TaskName != taskconfig.TaskMatchResume {
		t.Fatalf("expected match_resume, got %q", result.TaskName)
	}
}

func TestClassifyAdvertisesStoredOnlyTasks(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "write_cover_letter", "confidence": 0.9, "taskName": "cover_letter"}`}
	store := &stubStore{
		active: []string{"cover_letter"},
		configs: map[string]*taskconfig.TaskConfig{
			"cover_letter": {
				Name:        "cover letter v1",
				TaskName:    "cover_letter",
				Description: "Write a tailored cover letter for a job application.",
				IsActive:    true,
			},
		},
	}
	router := newTestRouter(stub, store)

	result := router.Classify(context.Background(), "write me a cover letter", nil)

	// A task only the store knows must be both advertised and routable.
	if result.TaskName != "cover_letter" {
		t.Fatalf("expected cover_letter, got %q", result.TaskName)
	}
	prompt := stub.lastRequest.Turns[0].Text
	if !strings.Contains(prompt, "cover_letter: Write a tailored cover letter") {
		t.Fatalf("expected the stored task and its description in the catalogue, got:\n%s", prompt)
	}
}

func TestClassifyCataloguesActiveTasks(t *testing.T) {
	stub := &stubGenerator{response: `{"intent": "x", "confidence": 0.9, "taskName": "GENERAL"}`}
	router := newTestRouter(stub, &stubStore{})

	router.Classify(context.Background(), "hi", nil)

	prompt := stub.lastRequest.Turns[0].Text
	for _, task := range []string{"extract_cv", "extract_job_description", "match_resume", "resume_tips", "GENERAL"} {
		if !strings.Contains(prompt, task) {
			t.Fatalf("expected task %q in the catalogue prompt", task)
		}
	}
	if !strings.Contains(prompt, "0.9-1.0") {
		t.Fatalf("expected the confidence rubric in the prompt")
	}
}
