package httpapi

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/executor"
	"github.com/cvforge/cvforge/internal/taskconfig"
)

type matchRequest struct {
	CVText             string `json:"cvText"`
	JobDescriptionText string `json:"jobDescriptionText"`
	// Shorter aliases some clients send.
	CV             string `json:"cv"`
	JobDescription string `json:"jobDescription"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.CVText == "" {
		req.CVText = req.CV
	}
	if req.JobDescriptionText == "" {
		req.JobDescriptionText = req.JobDescription
	}

	result, err := s.runner.Run(r.Context(), taskconfig.TaskMatchResume, executor.Input{
		CVText:             req.CVText,
		JobDescriptionText: req.JobDescriptionText,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, result.Data)
}

type tipsRequest struct {
	CVText     string `json:"cvText"`
	TargetRole string `json:"targetRole"`
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	var req tipsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.Run(r.Context(), taskconfig.TaskResumeTips, executor.Input{
		CVText:     req.CVText,
		TargetRole: req.TargetRole,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSuccess(w, http.StatusOK, result.Data)
}
