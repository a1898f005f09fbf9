package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/promptvc/promptvc/errors"
	"github.com/promptvc/promptvc/prompt"
)

// defaultActor stamps created_by until per-user credentials exist.
const defaultActor = "user"

// HandleVersionCommit handles POST /api/prompt/versions/commit
func (s *Server) HandleVersionCommit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionCommit)
	if !ok {
		return
	}
	commit := req.(*prompt.CommitRequest)

	version, err := s.store.CreateVersion(r.Context(), *commit, defaultActor)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prompt.VersionSummary{
		ID:            version.ID,
		PromptID:      version.PromptID,
		VersionNumber: version.VersionNumber,
		CommitMessage: version.CommitMessage,
		CommitType:    version.CommitType,
		TagName:       version.TagName,
		IsPinned:      version.IsPinned,
		CreatedAt:     version.CreatedAt,
		CreatedBy:     version.CreatedBy,
	})
}

// HandleVersionRollback handles POST /api/prompt/versions/rollback
func (s *Server) HandleVersionRollback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionRollback)
	if !ok {
		return
	}
	rollback := req.(*prompt.RollbackRequest)

	result, err := s.store.Rollback(r.Context(), *rollback, defaultActor)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleVersionHistory handles GET /api/prompt/versions/history
func (s *Server) HandleVersionHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	req := prompt.HistoryRequest{PromptID: r.URL.Query().Get("prompt_id")}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			s.writeClassifiedError(w, r, errors.NewInvalidRequestError("page_size must be an integer, got %q", raw))
			return
		}
		req.PageSize = &size
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			s.writeClassifiedError(w, r, errors.NewInvalidRequestError("offset must be an integer, got %q", raw))
			return
		}
		req.Offset = offset
	}
	if err := req.Validate(); err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}

	versions, total, err := s.store.ListVersions(r.Context(), req.PromptID, req.Limit(), req.Offset)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
		"total":    total,
	})
}

// HandleVersionDiff handles POST /api/prompt/versions/diff
func (s *Server) HandleVersionDiff(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionDiff)
	if !ok {
		return
	}

	result, err := s.differ.Diff(r.Context(), *req.(*prompt.DiffRequest))
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleVersionTag handles POST /api/prompt/versions/tag
func (s *Server) HandleVersionTag(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionTag)
	if !ok {
		return
	}
	tag := req.(*prompt.TagRequest)

	if err := s.store.SetTag(r.Context(), tag.VersionID, tag.TagName); err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleVersionPin handles POST /api/prompt/versions/pin
func (s *Server) HandleVersionPin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionPin)
	if !ok {
		return
	}
	pin := req.(*prompt.PinRequest)

	if err := s.store.SetPinned(r.Context(), pin.VersionID, pin.Pin()); err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleVersionPreview handles GET /api/prompt/versions/preview
func (s *Server) HandleVersionPreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	req := prompt.PreviewRequest{VersionID: r.URL.Query().Get("version_id")}
	if err := req.Validate(); err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}

	version, err := s.store.GetVersion(r.Context(), req.VersionID)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": version.Snapshot,
		"metadata": prompt.VersionSummary{
			ID:            version.ID,
			PromptID:      version.PromptID,
			VersionNumber: version.VersionNumber,
			CommitMessage: version.CommitMessage,
			CommitType:    version.CommitType,
			TagName:       version.TagName,
			IsPinned:      version.IsPinned,
			CreatedAt:     version.CreatedAt,
			CreatedBy:     version.CreatedBy,
		},
	})
}

// HandleVersionCleanup handles POST /api/prompt/versions/cleanup
func (s *Server) HandleVersionCleanup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := s.parseBody(w, r, prompt.ActionCleanup)
	if !ok {
		return
	}
	cleanup := req.(*prompt.CleanupRequest)

	maxAge := cleanup.EffectiveMaxAgeDays()
	minKeep := cleanup.EffectiveMinKeep()
	if cleanup.MaxAgeDays == nil && s.cfg.Retention.MaxAgeDays > 0 {
		maxAge = s.cfg.Retention.MaxAgeDays
	}
	if cleanup.MinVersionsRetained == nil && s.cfg.Retention.MinVersionsRetained > 0 {
		minKeep = s.cfg.Retention.MinVersionsRetained
	}

	deleted, err := s.store.Cleanup(r.Context(), maxAge, minKeep)
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted_count": deleted})
}

// parseBody constructs and validates the typed request for an action from a
// POST body. Writes the error response itself on failure.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request, action prompt.Action) (prompt.Request, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeClassifiedError(w, r, errors.WrapInvalidRequest(err, "failed to read request body"))
		return nil, false
	}

	req, err := prompt.ParseRequest(string(action), json.RawMessage(body))
	if err != nil {
		s.writeClassifiedError(w, r, err)
		return nil, false
	}
	return req, true
}
