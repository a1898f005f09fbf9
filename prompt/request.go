package prompt

import (
	"encoding/json"
	"regexp"

	"github.com/promptvc/promptvc/errors"
)

// Action names the closed set of version operations.
type Action string

const (
	ActionCommit   Action = "commit"
	ActionRollback Action = "rollback"
	ActionHistory  Action = "history"
	ActionDiff     Action = "diff"
	ActionTag      Action = "tag"
	ActionPin      Action = "pin"
	ActionPreview  Action = "preview"
	ActionCleanup  Action = "cleanup"
)

// Request model limits and defaults.
const (
	MaxCommitMessageLen      = 500
	DefaultPageSize          = 50
	MaxPageSize              = 100
	DefaultCleanupMaxAgeDays = 90
	DefaultCleanupMinKeep    = 10
)

var tagNamePattern = regexp.MustCompile(`^[\w\-.]{1,50}$`)

// Request is one of the typed request variants. Well-typed call sites
// construct variants directly; payloads arriving as untyped external input
// go through ParseRequest, and every variant still validates its field
// contract before any diff or persistence work begins.
type Request interface {
	Action() Action
	Validate() error
}

// CommitRequest persists a new version from the record's live state.
type CommitRequest struct {
	PromptID string `json:"prompt_id"`
	Message  string `json:"message,omitempty"`
	TagName  string `json:"tag_name,omitempty"`
}

func (CommitRequest) Action() Action { return ActionCommit }

func (r CommitRequest) Validate() error {
	if r.PromptID == "" {
		return errors.NewInvalidRequestError("commit requires prompt_id")
	}
	if len(r.Message) > MaxCommitMessageLen {
		return errors.NewInvalidRequestError("commit message exceeds %d characters", MaxCommitMessageLen)
	}
	if r.TagName != "" && !tagNamePattern.MatchString(r.TagName) {
		return errors.NewInvalidRequestError("tag name %q is invalid (1-50 word, dash, or dot characters)", r.TagName)
	}
	return nil
}

// RollbackRequest restores the live record to a previous version's snapshot.
type RollbackRequest struct {
	PromptID     string `json:"prompt_id"`
	VersionID    string `json:"version_id"`
	CreateBackup *bool  `json:"create_backup,omitempty"` // default true
}

func (RollbackRequest) Action() Action { return ActionRollback }

func (r RollbackRequest) Validate() error {
	if r.PromptID == "" {
		return errors.NewInvalidRequestError("rollback requires prompt_id")
	}
	if r.VersionID == "" {
		return errors.NewInvalidRequestError("rollback requires version_id")
	}
	return nil
}

// Backup reports whether a backup version should be created first.
func (r RollbackRequest) Backup() bool {
	return r.CreateBackup == nil || *r.CreateBackup
}

// HistoryRequest lists a record's committed versions.
type HistoryRequest struct {
	PromptID string `json:"prompt_id"`
	PageSize *int   `json:"page_size,omitempty"` // 1-100, default 50
	Offset   int    `json:"offset,omitempty"`
}

func (HistoryRequest) Action() Action { return ActionHistory }

func (r HistoryRequest) Validate() error {
	if r.PromptID == "" {
		return errors.NewInvalidRequestError("history requires prompt_id")
	}
	if r.PageSize != nil && (*r.PageSize < 1 || *r.PageSize > MaxPageSize) {
		return errors.NewInvalidRequestError("page size must be between 1 and %d, got %d", MaxPageSize, *r.PageSize)
	}
	if r.Offset < 0 {
		return errors.NewInvalidRequestError("offset must be >= 0, got %d", r.Offset)
	}
	return nil
}

// Limit returns the effective page size.
func (r HistoryRequest) Limit() int {
	if r.PageSize == nil {
		return DefaultPageSize
	}
	return *r.PageSize
}

// DiffRequest compares two snapshots of a record. Base defaults to the most
// recently committed version (or an empty snapshot when none exists); target
// defaults to the live state.
type DiffRequest struct {
	PromptID        string `json:"prompt_id"`
	BaseVersionID   string `json:"base_version_id,omitempty"`
	TargetVersionID string `json:"target_version_id,omitempty"`
}

func (DiffRequest) Action() Action { return ActionDiff }

func (r DiffRequest) Validate() error {
	if r.PromptID == "" {
		return errors.NewInvalidRequestError("diff requires prompt_id")
	}
	return nil
}

// TagRequest attaches a label to a version; a nil or empty tag clears it.
type TagRequest struct {
	VersionID string  `json:"version_id"`
	TagName   *string `json:"tag_name"`
}

func (TagRequest) Action() Action { return ActionTag }

func (r TagRequest) Validate() error {
	if r.VersionID == "" {
		return errors.NewInvalidRequestError("tag requires version_id")
	}
	if r.TagName != nil && *r.TagName != "" && !tagNamePattern.MatchString(*r.TagName) {
		return errors.NewInvalidRequestError("tag name %q is invalid (1-50 word, dash, or dot characters)", *r.TagName)
	}
	return nil
}

// PinRequest marks a version exempt from retention cleanup.
type PinRequest struct {
	VersionID string `json:"version_id"`
	Pinned    *bool  `json:"pinned,omitempty"` // default true
}

func (PinRequest) Action() Action { return ActionPin }

func (r PinRequest) Validate() error {
	if r.VersionID == "" {
		return errors.NewInvalidRequestError("pin requires version_id")
	}
	return nil
}

// Pin reports the effective pinned flag.
func (r PinRequest) Pin() bool {
	return r.Pinned == nil || *r.Pinned
}

// PreviewRequest fetches a version's snapshot and metadata.
type PreviewRequest struct {
	VersionID string `json:"version_id"`
}

func (PreviewRequest) Action() Action { return ActionPreview }

func (r PreviewRequest) Validate() error {
	if r.VersionID == "" {
		return errors.NewInvalidRequestError("preview requires version_id")
	}
	return nil
}

// CleanupRequest deletes old unpinned versions.
type CleanupRequest struct {
	MaxAgeDays          *int `json:"max_age_days,omitempty"`          // default 90
	MinVersionsRetained *int `json:"min_versions_retained,omitempty"` // default 10
}

func (CleanupRequest) Action() Action { return ActionCleanup }

func (r CleanupRequest) Validate() error {
	if r.MaxAgeDays != nil && *r.MaxAgeDays < 0 {
		return errors.NewInvalidRequestError("max_age_days must be >= 0, got %d", *r.MaxAgeDays)
	}
	if r.MinVersionsRetained != nil && *r.MinVersionsRetained < 0 {
		return errors.NewInvalidRequestError("min_versions_retained must be >= 0, got %d", *r.MinVersionsRetained)
	}
	return nil
}

// EffectiveMaxAgeDays returns the max age with the default applied.
func (r CleanupRequest) EffectiveMaxAgeDays() int {
	if r.MaxAgeDays == nil {
		return DefaultCleanupMaxAgeDays
	}
	return *r.MaxAgeDays
}

// EffectiveMinKeep returns the retained-version floor with the default applied.
func (r CleanupRequest) EffectiveMinKeep() int {
	if r.MinVersionsRetained == nil {
		return DefaultCleanupMinKeep
	}
	return *r.MinVersionsRetained
}

// ParseRequest constructs the typed variant for an action from wire input.
// Unknown actions and malformed payloads are rejected before any diff or
// persistence work begins.
func ParseRequest(action string, params json.RawMessage) (Request, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	decode := func(into Request) (Request, error) {
		if err := json.Unmarshal(params, into); err != nil {
			return nil, errors.WrapInvalidRequest(err, "failed to decode request parameters")
		}
		return into, nil
	}

	var req Request
	var err error
	switch Action(action) {
	case ActionCommit:
		req, err = decode(&CommitRequest{})
	case ActionRollback:
		req, err = decode(&RollbackRequest{})
	case ActionHistory:
		req, err = decode(&HistoryRequest{})
	case ActionDiff:
		req, err = decode(&DiffRequest{})
	case ActionTag:
		req, err = decode(&TagRequest{})
	case ActionPin:
		req, err = decode(&PinRequest{})
	case ActionPreview:
		req, err = decode(&PreviewRequest{})
	case ActionCleanup:
		req, err = decode(&CleanupRequest{})
	default:
		return nil, errors.NewInvalidRequestError("unknown action %q", action)
	}
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
