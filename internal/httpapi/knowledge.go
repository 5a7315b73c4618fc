package httpapi

import (
	"fmt"
	"net/http"

	"github.com/cvforge/cvforge/internal/taskconfig"
)

func (s *Server) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	entries, err := s.knowledge.ListKnowledge(r.Context(), r.URL.Query().Get("taskName"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, entries)
}

func (s *Server) handleCreateKnowledge(w http.ResponseWriter, r *http.Request) {
	var entry taskconfig.KnowledgeEntry
	if err := decodeBody(r, &entry); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.knowledge.CreateKnowledge(r.Context(), &entry)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "knowledge_create",
		fmt.Sprintf("task=%s type=%s priority=%d", created.TaskName, created.Type, created.Priority), true, "")
	s.writeSuccess(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.knowledge.DeleteKnowledge(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "knowledge_delete", fmt.Sprintf("id=%s", id), true, "")
	s.writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}
