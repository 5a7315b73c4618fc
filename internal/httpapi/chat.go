package httpapi

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/executor"
	"github.com/cvforge/cvforge/internal/taskconfig"
)

type chatRequest struct {
	Message string    `json:"message"`
	History []ai.Turn `json:"history"`
}

type chatResponse struct {
	TaskName   string         `json:"taskName"`
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Result     map[string]any `json:"result"`
}

// handleChat runs one chat turn: classify the message into a task, then
// execute that task. The message doubles as the document payload when the
// routed task is an extraction or analysis task, since chat users paste
// their text straight into the conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	classified := s.intents.Classify(r.Context(), req.Message, req.History)

	// Matching needs two separate documents; a single chat message cannot
	// supply both, and running the message against itself would score a
	// document against its own copy. Ask for the documents instead.
	if classified.TaskName == taskconfig.TaskMatchResume {
		s.writeSuccess(w, http.StatusOK, chatResponse{
			TaskName:   classified.TaskName,
			Intent:     classified.Intent,
			Confidence: classified.Confidence,
			Result: map[string]any{
				"reply": "To check how well a resume fits a job, I need both documents. " +
					"Please provide the resume and the job description separately, " +
					"or use the matching endpoint with cvText and jobDescriptionText.",
				"suggestions": []string{
					"Extract my resume first",
					"Extract a job description",
				},
			},
		})
		return
	}

	result, err := s.runner.Run(r.Context(), classified.TaskName, executor.Input{
		Text:    req.Message,
		CVText:  req.Message,
		Message: req.Message,
		History: req.History,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, chatResponse{
		TaskName:   classified.TaskName,
		Intent:     classified.Intent,
		Confidence: classified.Confidence,
		Result:     result.Data,
	})
}
