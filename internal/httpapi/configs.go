package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cvforge/cvforge/internal/taskconfig"
)

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.configs.ListConfigs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, configs)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg taskconfig.TaskConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.configs.CreateConfig(r.Context(), &cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "task_config_create",
		fmt.Sprintf("name=%s task=%s active=%t", created.Name, created.TaskName, created.IsActive), true, "")
	s.writeSuccess(w, http.StatusCreated, created)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.GetConfig(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg taskconfig.TaskConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.writeError(w, err)
		return
	}
	cfg.ID = r.PathValue("id")

	updated, err := s.configs.UpdateConfig(r.Context(), &cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "task_config_update",
		fmt.Sprintf("id=%s name=%s", updated.ID, updated.Name), true, "")
	s.writeSuccess(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.configs.DeleteConfig(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "task_config_delete", fmt.Sprintf("id=%s", id), true, "")
	s.writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleActivateConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "task_config_activate",
		fmt.Sprintf("id=%s task=%s", cfg.ID, cfg.TaskName), true, "")
	s.writeSuccess(w, http.StatusOK, cfg)
}

func (s *Server) handleDeactivateConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Deactivate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.Record(r.Context(), "task_config_deactivate",
		fmt.Sprintf("id=%s task=%s", cfg.ID, cfg.TaskName), true, "")
	s.writeSuccess(w, http.StatusOK, cfg)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := s.activity.ListActivity(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, entries)
}
