package server

import (
	"net/http"
	"strings"

	"github.com/promptvc/promptvc/prompt"
)

// HandlePromptList handles GET /api/prompt/list
func (s *Server) HandlePromptList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	prompts, err := s.store.ListPrompts(r.Context(), 100)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prompts": prompts,
		"count":   len(prompts),
	})
}

// HandlePromptSave handles POST /api/prompt/save
// Creates a prompt when no id is given, updates the live record otherwise.
func (s *Server) HandlePromptSave(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var rec prompt.Record
	if err := readJSON(w, r, &rec); err != nil {
		return
	}

	created := rec.ID == ""
	saved, err := s.store.SavePrompt(r.Context(), &rec)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

// HandlePromptGet handles GET /api/prompt/{id}
func (s *Server) HandlePromptGet(w http.ResponseWriter, r *http.Request, promptID string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rec, err := s.store.GetPrompt(r.Context(), promptID)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandlePrompt routes prompt-related requests
func (s *Server) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/prompt")

	switch {
	case strings.HasPrefix(path, "/versions/"):
		s.handleVersionAction(w, r, strings.TrimPrefix(path, "/versions/"))
	case path == "/list":
		s.HandlePromptList(w, r)
	case path == "/save":
		s.HandlePromptSave(w, r)
	case strings.HasPrefix(path, "/"):
		if promptID := strings.TrimPrefix(path, "/"); promptID != "" {
			s.HandlePromptGet(w, r, promptID)
			return
		}
		fallthrough
	default:
		writeError(w, http.StatusNotFound, codeNotFound, "Unknown prompt endpoint")
	}
}

// handleVersionAction dispatches the version operations under
// /api/prompt/versions/{action}.
func (s *Server) handleVersionAction(w http.ResponseWriter, r *http.Request, action string) {
	switch prompt.Action(action) {
	case prompt.ActionCommit:
		s.HandleVersionCommit(w, r)
	case prompt.ActionRollback:
		s.HandleVersionRollback(w, r)
	case prompt.ActionHistory:
		s.HandleVersionHistory(w, r)
	case prompt.ActionDiff:
		s.HandleVersionDiff(w, r)
	case prompt.ActionTag:
		s.HandleVersionTag(w, r)
	case prompt.ActionPin:
		s.HandleVersionPin(w, r)
	case prompt.ActionPreview:
		s.HandleVersionPreview(w, r)
	case prompt.ActionCleanup:
		s.HandleVersionCleanup(w, r)
	default:
		writeError(w, http.StatusNotFound, codeNotFound, "Unknown version action: "+action)
	}
}
