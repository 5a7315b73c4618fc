// Package httpapi exposes the task-invocation core over HTTP. Handlers are
// thin: decode, delegate, encode the shared envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cvforge/cvforge/internal/activity"
	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/executor"
	"github.com/cvforge/cvforge/internal/intent"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskRunner executes one AI task.
type TaskRunner interface {
	Run(ctx context.Context, taskName string, in executor.Input) (*executor.Result, error)
}

// IntentClassifier routes a chat message to a task name.
type IntentClassifier interface {
	Classify(ctx context.Context, message string, history []ai.Turn) intent.Result
}

// ConfigAdmin is the store surface behind the task-config admin endpoints.
type ConfigAdmin interface {
	CreateConfig(ctx context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error)
	GetConfig(ctx context.Context, id string) (*taskconfig.TaskConfig, error)
	ListConfigs(ctx context.Context) ([]*taskconfig.TaskConfig, error)
	UpdateConfig(ctx context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error)
	DeleteConfig(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) (*taskconfig.TaskConfig, error)
	Deactivate(ctx context.Context, id string) (*taskconfig.TaskConfig, error)
}

// KnowledgeAdmin is the store surface behind the knowledge endpoints.
type KnowledgeAdmin interface {
	CreateKnowledge(ctx context.Context, entry *taskconfig.KnowledgeEntry) (*taskconfig.KnowledgeEntry, error)
	ListKnowledge(ctx context.Context, taskName string) ([]taskconfig.KnowledgeEntry, error)
	DeleteKnowledge(ctx context.Context, id string) error
}

// ActivityReader lists recent activity-log entries.
type ActivityReader interface {
	ListActivity(ctx context.Context, limit int) ([]activity.Entry, error)
}

// Server holds the handler dependencies.
type Server struct {
	runner    TaskRunner
	intents   IntentClassifier
	configs   ConfigAdmin
	knowledge KnowledgeAdmin
	activity  ActivityReader
	recorder  *activity.Recorder
	logger    *zap.Logger
}

// NewServer wires the HTTP surface.
func NewServer(runner TaskRunner, intents IntentClassifier, configs ConfigAdmin, knowledge KnowledgeAdmin, activityReader ActivityReader, recorder *activity.Recorder, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = activity.NewRecorder(nil, log)
	}
	return &Server{
		runner:    runner,
		intents:   intents,
		configs:   configs,
		knowledge: knowledge,
		activity:  activityReader,
		recorder:  recorder,
		logger:    log,
	}
}

// Router builds the request multiplexer.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("POST /chatbot", s.handleChat)

	mux.HandleFunc("POST /extract/cv", s.extractHandler(taskconfig.TaskExtractCV))
	mux.HandleFunc("POST /extract/job-description", s.extractHandler(taskconfig.TaskExtractJobDescription))
	mux.HandleFunc("POST /extract/preprocess", s.extractHandler(taskconfig.TaskPreprocess))

	mux.HandleFunc("POST /resumes/match", s.handleMatch)
	mux.HandleFunc("POST /resumes/tips", s.handleTips)

	mux.HandleFunc("GET /admin/task-configs", s.handleListConfigs)
	mux.HandleFunc("POST /admin/task-configs", s.handleCreateConfig)
	mux.HandleFunc("GET /admin/task-configs/{id}", s.handleGetConfig)
	mux.HandleFunc("PUT /admin/task-configs/{id}", s.handleUpdateConfig)
	mux.HandleFunc("DELETE /admin/task-configs/{id}", s.handleDeleteConfig)
	mux.HandleFunc("POST /admin/task-configs/{id}/activate", s.handleActivateConfig)
	mux.HandleFunc("POST /admin/task-configs/{id}/deactivate", s.handleDeactivateConfig)

	mux.HandleFunc("GET /admin/knowledge", s.handleListKnowledge)
	mux.HandleFunc("POST /admin/knowledge", s.handleCreateKnowledge)
	mux.HandleFunc("DELETE /admin/knowledge/{id}", s.handleDeleteKnowledge)

	mux.HandleFunc("GET /admin/activity", s.handleListActivity)

	return s.withRequestLog(mux)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		next.ServeHTTP(w, r)

		s.logger.Info("request handled",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var data any

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindDuplicate:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindResponseParse:
		status = http.StatusUnprocessableEntity
		if raw := apperr.RawResponseOf(err); raw != "" {
			data = map[string]any{"rawResponse": raw}
		}
	case apperr.KindConfig, apperr.KindAIProcessing:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, envelope{Status: "error", Data: data, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid JSON request body")
	}
	return nil
}
