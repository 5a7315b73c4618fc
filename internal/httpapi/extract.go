package httpapi

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/executor"
)

type extractRequest struct {
	Text string `json:"text"`
}

func (s *Server) extractHandler(taskName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		result, err := s.runner.Run(r.Context(), taskName, executor.Input{Text: req.Text})
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.writeSuccess(w, http.StatusOK, result.Data)
	}
}
