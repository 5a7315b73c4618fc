package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cvforge/cvforge/internal/activity"
	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/executor"
	"github.com/cvforge/cvforge/internal/intent"
	"github.com/cvforge/cvforge/internal/taskconfig"
)

type stubRunner struct {
	result   *executor.Result
	err      error
	gotTask  string
	gotInput executor.Input
}

func (s *stubRunner) Run(_ context.Context, taskName string, in executor.Input) (*executor.Result, error) {
	s.gotTask = taskName
	s.gotInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubClassifier struct {
	result intent.Result
}

func (s *stubClassifier) Classify(context.Context, string, []ai.Turn) intent.Result {
	return s.result
}

type stubConfigAdmin struct {
	configs   []*taskconfig.TaskConfig
	created   *taskconfig.TaskConfig
	err       error
	activated string
}

func (s *stubConfigAdmin) CreateConfig(_ context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = cfg
	out := *cfg
	out.ID = "cfg-1"
	return &out, nil
}

func (s *stubConfigAdmin) GetConfig(_ context.Context, id string) (*taskconfig.TaskConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, cfg := range s.configs {
		if cfg.ID == id {
			return cfg, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "task config %s not found", id)
}

func (s *stubConfigAdmin) ListConfigs(context.Context) ([]*taskconfig.TaskConfig, error) {
	return s.configs, s.err
}

func (s *stubConfigAdmin) UpdateConfig(_ context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return cfg, nil
}

func (s *stubConfigAdmin) DeleteConfig(context.Context, string) error { return s.err }

func (s *stubConfigAdmin) Activate(_ context.Context, id string) (*taskconfig.TaskConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.activated = id
	return &taskconfig.TaskConfig{ID: id, TaskName: taskconfig.TaskChatbot, IsActive: true}, nil
}

func (s *stubConfigAdmin) Deactivate(_ context.Context, id string) (*taskconfig.TaskConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &taskconfig.TaskConfig{ID: id, TaskName: taskconfig.TaskChatbot}, nil
}

type stubKnowledgeAdmin struct {
	entries []taskconfig.KnowledgeEntry
	err     error
}

func (s *stubKnowledgeAdmin) CreateKnowledge(_ context.Context, entry *taskconfig.KnowledgeEntry) (*taskconfig.KnowledgeEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	out := *entry
	out.ID = "kn-1"
	return &out, nil
}

func (s *stubKnowledgeAdmin) ListKnowledge(context.Context, string) ([]taskconfig.KnowledgeEntry, error) {
	return s.entries, s.err
}

func (s *stubKnowledgeAdmin) DeleteKnowledge(context.Context, string) error { return s.err }

type stubActivityReader struct {
	entries []activity.Entry
}

func (s *stubActivityReader) ListActivity(context.Context, int) ([]activity.Entry, error) {
	return s.entries, nil
}

func newTestServer(runner TaskRunner, classifier IntentClassifier, configs ConfigAdmin) *Server {
	if runner == nil {
		runner = &stubRunner{result: &executor.Result{Data: map[string]any{}}}
	}
	if classifier == nil {
		classifier = &stubClassifier{result: intent.Result{Intent: "general_query", Confidence: 0.5, TaskName: taskconfig.TaskGeneral}}
	}
	if configs == nil {
		configs = &stubConfigAdmin{}
	}
	return NewServer(runner, classifier, configs, &stubKnowledgeAdmin{}, &stubActivityReader{}, nil, nil)
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a valid envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := doRequest(t, srv.Router(), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %q, want healthy marker", rec.Body.String())
	}
}

func TestChatRoutesClassifiedTask(t *testing.T) {
	runner := &stubRunner{result: &executor.Result{
		TaskName: taskconfig.TaskExtractCV,
		Data:     map[string]any{"personalInfo": map[string]any{"headline": "Backend Engineer"}},
	}}
	classifier := &stubClassifier{result: intent.Result{
		Intent: "extract_resume", Confidence: 0.95, TaskName: taskconfig.TaskExtractCV,
	}}

	srv := newTestServer(runner, classifier, nil)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/chatbot",
		`{"message":"here is my resume: ...","history":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if runner.gotTask != taskconfig.TaskExtractCV {
		t.Errorf("routed task = %q, want %q", runner.gotTask, taskconfig.TaskExtractCV)
	}
	// The chat message must reach every input slot so the routed task's
	// validation passes whichever payload it expects.
	if runner.gotInput.Message != "here is my resume: ..." ||
		runner.gotInput.CVText != runner.gotInput.Message ||
		runner.gotInput.Text != runner.gotInput.Message {
		t.Errorf("chat message not fanned out to input fields: %+v", runner.gotInput)
	}
	if len(runner.gotInput.History) != 1 {
		t.Errorf("history length = %d, want 1", len(runner.gotInput.History))
	}

	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", env.Data)
	}
	if data["taskName"] != taskconfig.TaskExtractCV {
		t.Errorf("taskName = %v, want %q", data["taskName"], taskconfig.TaskExtractCV)
	}
	if data["confidence"] != 0.95 {
		t.Errorf("confidence = %v, want 0.95", data["confidence"])
	}
}

func TestChatMatchIntentAsksForBothDocuments(t *testing.T) {
	runner := &stubRunner{result: &executor.Result{Data: map[string]any{}}}
	classifier := &stubClassifier{result: intent.Result{
		Intent: "match_resume_to_job", Confidence: 0.92, TaskName: taskconfig.TaskMatchResume,
	}}

	srv := newTestServer(runner, classifier, nil)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/chatbot",
		`{"message":"does my resume fit this job?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	// The matcher must not run with the message standing in for both documents.
	if runner.gotTask != "" {
		t.Fatalf("expected no task execution, but %q ran", runner.gotTask)
	}

	env := decodeEnvelope(t, rec)
	data := env.Data.(map[string]any)
	result, ok := data["result"].(map[string]any)
	if !ok {
		t.Fatalf("result is %T, want object", data["result"])
	}
	reply, _ := result["reply"].(string)
	if !strings.Contains(reply, "both documents") {
		t.Errorf("reply = %q, want a clarification asking for both documents", reply)
	}
}

func TestExtractEndpointSuccess(t *testing.T) {
	runner := &stubRunner{result: &executor.Result{
		TaskName: taskconfig.TaskExtractJobDescription,
		Data:     map[string]any{"position": "Go Developer"},
	}}

	srv := newTestServer(runner, nil, nil)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/extract/job-description",
		`{"text":"We are hiring a Go developer"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if runner.gotTask != taskconfig.TaskExtractJobDescription {
		t.Errorf("task = %q, want %q", runner.gotTask, taskconfig.TaskExtractJobDescription)
	}
	env := decodeEnvelope(t, rec)
	data := env.Data.(map[string]any)
	if data["position"] != "Go Developer" {
		t.Errorf("position = %v, want Go Developer", data["position"])
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperr.New(apperr.KindValidation, "text is required"), http.StatusBadRequest},
		{"duplicate", apperr.New(apperr.KindDuplicate, "config name taken"), http.StatusBadRequest},
		{"not found", apperr.New(apperr.KindNotFound, "no such config"), http.StatusNotFound},
		{"parse failure", apperr.ParseFailure(errors.New("bad json"), "I cannot answer that"), http.StatusUnprocessableEntity},
		{"config", apperr.New(apperr.KindConfig, "unknown task"), http.StatusInternalServerError},
		{"ai processing", apperr.New(apperr.KindAIProcessing, "provider unavailable"), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{err: tt.err}
			srv := newTestServer(runner, nil, nil)
			rec := doRequest(t, srv.Router(), http.MethodPost, "/extract/cv", `{"text":"cv"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, rec)
			if env.Status != "error" {
				t.Errorf("envelope status = %q, want error", env.Status)
			}
			if env.Message == "" {
				t.Error("error envelope has empty message")
			}
		})
	}
}

func TestParseFailureCarriesRawResponse(t *testing.T) {
	runner := &stubRunner{err: apperr.ParseFailure(errors.New("unexpected token"), "Sure! Here is the JSON you asked for")}
	srv := newTestServer(runner, nil, nil)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/resumes/match",
		`{"cvText":"cv","jobDescriptionText":"jd"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object with rawResponse", env.Data)
	}
	if data["rawResponse"] != "Sure! Here is the JSON you asked for" {
		t.Errorf("rawResponse = %v", data["rawResponse"])
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/extract/cv", `{"text":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateConfigReturns201(t *testing.T) {
	admin := &stubConfigAdmin{}
	srv := newTestServer(nil, nil, admin)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/admin/task-configs",
		`{"name":"strict-cv","taskName":"extract_cv","modelName":"gemini-1.5-flash"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
	if admin.created == nil || admin.created.Name != "strict-cv" {
		t.Errorf("store did not receive config: %+v", admin.created)
	}
	env := decodeEnvelope(t, rec)
	data := env.Data.(map[string]any)
	if data["id"] != "cfg-1" {
		t.Errorf("created id = %v, want cfg-1", data["id"])
	}
}

func TestActivateConfigUsesPathID(t *testing.T) {
	admin := &stubConfigAdmin{}
	srv := newTestServer(nil, nil, admin)
	rec := doRequest(t, srv.Router(), http.MethodPost, "/admin/task-configs/cfg-42/activate", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if admin.activated != "cfg-42" {
		t.Errorf("activated id = %q, want cfg-42", admin.activated)
	}
}

func TestGetConfigNotFound(t *testing.T) {
	srv := newTestServer(nil, nil, &stubConfigAdmin{})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/admin/task-configs/missing", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateKnowledgeValidatesPairing(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	// GENERAL knowledge bound to a specific task must be rejected.
	rec := doRequest(t, srv.Router(), http.MethodPost, "/admin/knowledge",
		`{"taskName":"extract_cv","type":"GENERAL","content":"always answer in English"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\nbody: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv.Router(), http.MethodPost, "/admin/knowledge",
		`{"taskName":"GENERAL","type":"GENERAL","content":"always answer in English"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
}
