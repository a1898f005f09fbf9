package prompt

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptvc/promptvc/diff"
	"github.com/promptvc/promptvc/errors"
)

// Record is the live state of a prompt: free-text fields plus structured
// configuration.
type Record struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Template     string       `json:"template"`
	SystemPrompt string       `json:"system_prompt,omitempty"`
	Description  string       `json:"description,omitempty"`
	ModelConfig  *diff.Object `json:"model_config,omitempty"`
	Variables    *diff.Object `json:"variables,omitempty"`
	Metadata     *diff.Object `json:"metadata,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// RollbackResult summarizes a completed rollback.
type RollbackResult struct {
	PromptID              string  `json:"prompt_id"`
	RestoredVersionID     string  `json:"restored_version_id"`
	RestoredVersionNumber int     `json:"restored_version_number"`
	BackupVersionID       *string `json:"backup_version_id,omitempty"`
}

// Store handles prompt and version persistence in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a new prompt store.
func NewStore(db *sql.DB, logger *zap.SugaredLogger) *Store {
	return &Store{db: db, logger: logger}
}

// SavePrompt creates the live record (empty ID) or updates an existing one.
func (s *Store) SavePrompt(ctx context.Context, rec *Record) (*Record, error) {
	if rec.Name == "" {
		return nil, errors.NewInvalidRequestError("prompt name is required")
	}

	modelConfig, err := marshalNullable(rec.ModelConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode model_config")
	}
	variables, err := marshalNullable(rec.Variables)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode variables")
	}
	metadata, err := marshalNullable(rec.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}

	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO prompts (id, name, template, system_prompt, description, model_config, variables, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.Template, rec.SystemPrompt, rec.Description,
			modelConfig, variables, metadata, now, now,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to insert prompt")
		}
		return rec, nil
	}

	rec.UpdatedAt = now
	res, err := s.db.ExecContext(ctx, `
		UPDATE prompts
		SET name = ?, template = ?, system_prompt = ?, description = ?,
		    model_config = ?, variables = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		rec.Name, rec.Template, rec.SystemPrompt, rec.Description,
		modelConfig, variables, metadata, now, rec.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update prompt")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NewNotFoundError("prompt %s not found", rec.ID)
	}
	return rec, nil
}

// GetPrompt returns a live prompt record by ID.
func (s *Store) GetPrompt(ctx context.Context, promptID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, template, system_prompt, description, model_config, variables, metadata, created_at, updated_at
		FROM prompts WHERE id = ?`, promptID)

	var rec Record
	var modelConfig, variables, metadata sql.NullString
	err := row.Scan(&rec.ID, &rec.Name, &rec.Template, &rec.SystemPrompt, &rec.Description,
		&modelConfig, &variables, &metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("prompt %s not found", promptID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query prompt")
	}

	if rec.ModelConfig, err = parseNullableObject(modelConfig); err != nil {
		return nil, errors.Wrap(err, "failed to parse model_config")
	}
	if rec.Variables, err = parseNullableObject(variables); err != nil {
		return nil, errors.Wrap(err, "failed to parse variables")
	}
	if rec.Metadata, err = parseNullableObject(metadata); err != nil {
		return nil, errors.Wrap(err, "failed to parse metadata")
	}
	return &rec, nil
}

// ListPrompts returns live prompt records, most recently updated first.
func (s *Store) ListPrompts(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM prompts ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list prompts")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan prompt id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate prompts")
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetPrompt(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LiveSnapshot builds the field mapping of a prompt's current live state.
// Structured columns that are NULL are omitted from the snapshot.
func (s *Store) LiveSnapshot(ctx context.Context, promptID string) (Snapshot, error) {
	rec, err := s.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}
	return snapshotFromRecord(rec), nil
}

func snapshotFromRecord(rec *Record) Snapshot {
	snap := diff.NewObject()
	snap.Set("name", rec.Name)
	snap.Set("template", rec.Template)
	snap.Set("system_prompt", rec.SystemPrompt)
	snap.Set("description", rec.Description)
	if rec.ModelConfig != nil {
		snap.Set("model_config", rec.ModelConfig)
	}
	if rec.Variables != nil {
		snap.Set("variables", rec.Variables)
	}
	if rec.Metadata != nil {
		snap.Set("metadata", rec.Metadata)
	}
	return snap
}

// GetVersion returns a version by ID, ErrNotFound when absent.
func (s *Store) GetVersion(ctx context.Context, versionID string) (*VersionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, prompt_id, version_number, commit_message, commit_type, snapshot, tag_name, is_pinned, created_at, created_by
		FROM prompt_versions WHERE id = ?`, versionID)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("version %s not found", versionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query version")
	}
	return v, nil
}

// LatestVersion returns the most recently committed version of a prompt, or
// nil when no version exists yet.
func (s *Store) LatestVersion(ctx context.Context, promptID string) (*VersionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, prompt_id, version_number, commit_message, commit_type, snapshot, tag_name, is_pinned, created_at, created_by
		FROM prompt_versions WHERE prompt_id = ? ORDER BY version_number DESC LIMIT 1`, promptID)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query latest version")
	}
	return v, nil
}

// CreateVersion persists a new version from the prompt's live state.
func (s *Store) CreateVersion(ctx context.Context, req CommitRequest, actor string) (*VersionRecord, error) {
	snap, err := s.LiveSnapshot(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}
	return s.insertVersion(ctx, req.PromptID, snap, req.Message, CommitManual, req.TagName, actor)
}

func (s *Store) insertVersion(ctx context.Context, promptID string, snap Snapshot, message string, commitType CommitType, tagName, actor string) (*VersionRecord, error) {
	if tagName != "" {
		var exists bool
		err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM prompt_versions WHERE prompt_id = ? AND tag_name = ?)`,
			promptID, tagName).Scan(&exists)
		if err != nil {
			return nil, errors.Wrap(err, "failed to check tag uniqueness")
		}
		if exists {
			return nil, errors.Wrap(errors.ErrConflict, errors.Newf("tag %q already exists for prompt %s", tagName, promptID).Error())
		}
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}

	var next int
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0) + 1 FROM prompt_versions WHERE prompt_id = ?`,
		promptID).Scan(&next)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute next version number")
	}

	now := time.Now().UTC()
	v := &VersionRecord{
		ID:            uuid.NewString(),
		PromptID:      promptID,
		VersionNumber: next,
		CommitMessage: message,
		CommitType:    commitType,
		Snapshot:      snap,
		IsPinned:      false,
		CreatedAt:     now,
		CreatedBy:     actor,
	}
	var tag any
	if tagName != "" {
		v.TagName = &tagName
		tag = tagName
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prompt_versions (id, prompt_id, version_number, commit_message, commit_type, snapshot, tag_name, is_pinned, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		v.ID, v.PromptID, v.VersionNumber, v.CommitMessage, string(v.CommitType), string(snapJSON), tag, now, actor,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store version")
	}

	if s.logger != nil {
		s.logger.Infow("Version committed",
			"prompt_id", promptID,
			"version_number", next,
			"commit_type", commitType,
		)
	}
	return v, nil
}

// Rollback restores the live record to a version's snapshot, optionally
// committing a backup of the current live state first.
func (s *Store) Rollback(ctx context.Context, req RollbackRequest, actor string) (*RollbackResult, error) {
	target, err := s.GetVersion(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if target.PromptID != req.PromptID {
		return nil, errors.NewNotFoundError("version %s not found for prompt %s", req.VersionID, req.PromptID)
	}

	result := &RollbackResult{
		PromptID:              req.PromptID,
		RestoredVersionID:     target.ID,
		RestoredVersionNumber: target.VersionNumber,
	}

	if req.Backup() {
		live, err := s.LiveSnapshot(ctx, req.PromptID)
		if err != nil {
			return nil, err
		}
		backup, err := s.insertVersion(ctx, req.PromptID, live,
			errors.Newf("Backup before rollback to version %d", target.VersionNumber).Error(),
			CommitRollbackBackup, "", actor)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create rollback backup")
		}
		result.BackupVersionID = &backup.ID
	}

	if err := s.restoreSnapshot(ctx, req.PromptID, target.Snapshot); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Infow("Rolled back prompt",
			"prompt_id", req.PromptID,
			"restored_version", target.VersionNumber,
			"backup_created", req.Backup(),
		)
	}
	return result, nil
}

// restoreSnapshot overwrites the live record from a stored snapshot. Fields
// absent from the snapshot reset to their zero state.
func (s *Store) restoreSnapshot(ctx context.Context, promptID string, snap Snapshot) error {
	name := stringField(snap, "name")
	template := stringField(snap, "template")
	systemPrompt := stringField(snap, "system_prompt")
	description := stringField(snap, "description")

	modelConfig, err := marshalSnapshotField(snap, "model_config")
	if err != nil {
		return err
	}
	variables, err := marshalSnapshotField(snap, "variables")
	if err != nil {
		return err
	}
	metadata, err := marshalSnapshotField(snap, "metadata")
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE prompts
		SET name = ?, template = ?, system_prompt = ?, description = ?,
		    model_config = ?, variables = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		name, template, systemPrompt, description,
		modelConfig, variables, metadata, time.Now().UTC(), promptID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to restore snapshot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("prompt %s not found", promptID)
	}
	return nil
}

// ListVersions returns one page of a prompt's versions, newest first, plus
// the total count.
func (s *Store) ListVersions(ctx context.Context, promptID string, limit, offset int) ([]VersionSummary, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM prompt_versions WHERE prompt_id = ?`, promptID).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count versions")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt_id, version_number, commit_message, commit_type, tag_name, is_pinned, created_at, created_by
		FROM prompt_versions
		WHERE prompt_id = ?
		ORDER BY version_number DESC
		LIMIT ? OFFSET ?`, promptID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list versions")
	}
	defer rows.Close()

	summaries := []VersionSummary{}
	for rows.Next() {
		var v VersionSummary
		var commitType string
		var tag sql.NullString
		if err := rows.Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.CommitMessage, &commitType, &tag, &v.IsPinned, &v.CreatedAt, &v.CreatedBy); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan version row")
		}
		v.CommitType = CommitType(commitType)
		if tag.Valid {
			v.TagName = &tag.String
		}
		summaries = append(summaries, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to iterate versions")
	}
	return summaries, total, nil
}

// SetTag attaches a tag to a version; nil or empty clears it. A tag can name
// at most one version per prompt.
func (s *Store) SetTag(ctx context.Context, versionID string, tagName *string) error {
	if tagName != nil && *tagName == "" {
		tagName = nil
	}

	if tagName != nil {
		v, err := s.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		var exists bool
		err = s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM prompt_versions WHERE prompt_id = ? AND tag_name = ? AND id != ?)`,
			v.PromptID, *tagName, versionID).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "failed to check tag uniqueness")
		}
		if exists {
			return errors.Wrap(errors.ErrConflict, errors.Newf("tag %q already exists for prompt %s", *tagName, v.PromptID).Error())
		}
	}

	var tag any
	if tagName != nil {
		tag = *tagName
	}
	res, err := s.db.ExecContext(ctx, `UPDATE prompt_versions SET tag_name = ? WHERE id = ?`, tag, versionID)
	if err != nil {
		return errors.Wrap(err, "failed to update tag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("version %s not found", versionID)
	}
	return nil
}

// SetPinned marks or unmarks a version as exempt from retention cleanup.
func (s *Store) SetPinned(ctx context.Context, versionID string, pinned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE prompt_versions SET is_pinned = ? WHERE id = ?`, pinned, versionID)
	if err != nil {
		return errors.Wrap(err, "failed to update pin")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("version %s not found", versionID)
	}
	return nil
}

// Cleanup deletes unpinned versions older than maxAgeDays, always retaining
// the newest minKeep versions of every prompt.
func (s *Store) Cleanup(ctx context.Context, maxAgeDays, minKeep int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM prompt_versions
		WHERE is_pinned = 0
		  AND created_at < ?
		  AND id NOT IN (
		      SELECT pv2.id FROM prompt_versions pv2
		      WHERE pv2.prompt_id = prompt_versions.prompt_id
		      ORDER BY pv2.version_number DESC
		      LIMIT ?
		  )`, cutoff, minKeep)
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up versions")
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted versions")
	}
	if s.logger != nil && deleted > 0 {
		s.logger.Infow("Cleaned up old versions",
			"deleted", deleted,
			"max_age_days", maxAgeDays,
			"min_retained", minKeep,
		)
	}
	return deleted, nil
}

// VersionSnapshot implements SnapshotSource.
func (s *Store) VersionSnapshot(ctx context.Context, versionID string) (Snapshot, error) {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return v.Snapshot, nil
}

// LatestSnapshot implements SnapshotSource.
func (s *Store) LatestSnapshot(ctx context.Context, promptID string) (Snapshot, bool, error) {
	v, err := s.LatestVersion(ctx, promptID)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, false, nil
	}
	return v.Snapshot, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*VersionRecord, error) {
	var v VersionRecord
	var commitType, snapJSON string
	var tag sql.NullString
	err := row.Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.CommitMessage, &commitType, &snapJSON, &tag, &v.IsPinned, &v.CreatedAt, &v.CreatedBy)
	if err != nil {
		return nil, err
	}
	v.CommitType = CommitType(commitType)
	if tag.Valid {
		v.TagName = &tag.String
	}

	parsed, err := diff.ParseValue([]byte(snapJSON))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse snapshot")
	}
	snap, ok := parsed.(*diff.Object)
	if !ok {
		return nil, errors.Newf("snapshot of version %s is not an object", v.ID)
	}
	v.Snapshot = snap
	return &v, nil
}

func marshalNullable(obj *diff.Object) (any, error) {
	if obj == nil {
		return nil, nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func parseNullableObject(col sql.NullString) (*diff.Object, error) {
	if !col.Valid {
		return nil, nil
	}
	v, err := diff.ParseValue([]byte(col.String))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*diff.Object)
	if !ok {
		return nil, errors.New("column value is not a JSON object")
	}
	return obj, nil
}

func stringField(snap Snapshot, field string) string {
	v, ok := snap.Get(field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func marshalSnapshotField(snap Snapshot, field string) (any, error) {
	v, ok := snap.Get(field)
	if !ok || v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode snapshot field %s", field)
	}
	return string(data), nil
}
