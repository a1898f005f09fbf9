package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptvc/promptvc/diff"
	"github.com/promptvc/promptvc/errors"
	promptvctesting "github.com/promptvc/promptvc/internal/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(promptvctesting.CreateTestDB(t), nil)
}

func seedPrompt(t *testing.T, s *Store) *Record {
	t.Helper()
	cfg := diff.NewObject()
	cfg.Set("model", "small")
	cfg.Set("temperature", 0.2)

	rec, err := s.SavePrompt(context.Background(), &Record{
		Name:         "greeting",
		Template:     "Hello {{name}}\nWelcome aboard",
		SystemPrompt: "Be friendly",
		ModelConfig:  cfg,
	})
	require.NoError(t, err)
	return rec
}

func TestStore_SavePrompt_CreateAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := seedPrompt(t, s)
	require.NotEmpty(t, rec.ID)

	got, err := s.GetPrompt(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "greeting", got.Name)
	assert.Equal(t, "Be friendly", got.SystemPrompt)
	require.NotNil(t, got.ModelConfig)
	assert.Equal(t, []string{"model", "temperature"}, got.ModelConfig.Keys(),
		"structured field key order survives the round trip")
	assert.Nil(t, got.Variables)

	got.Template = "Hi {{name}}"
	_, err = s.SavePrompt(ctx, got)
	require.NoError(t, err)

	again, err := s.GetPrompt(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi {{name}}", again.Template)

	_, err = s.SavePrompt(ctx, &Record{ID: "missing", Name: "x"})
	assert.True(t, errors.IsNotFoundError(err))

	_, err = s.SavePrompt(ctx, &Record{})
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestStore_LiveSnapshot_OmitsNullColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SavePrompt(ctx, &Record{Name: "bare", Template: "t"})
	require.NoError(t, err)

	snap, err := s.LiveSnapshot(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "template", "system_prompt", "description"}, snap.Keys())

	_, err = s.LiveSnapshot(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_CreateVersion_SequentialNumbers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	v1, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID, Message: "first"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, CommitManual, v1.CommitType)
	assert.Equal(t, "alice", v1.CreatedBy)

	v2, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID, Message: "second"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	got, err := s.GetVersion(ctx, v1.ID)
	require.NoError(t, err)
	name, _ := got.Snapshot.Get("name")
	assert.Equal(t, "greeting", name)
	require.True(t, got.Snapshot.Has("model_config"))
}

func TestStore_CreateVersion_TagConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	_, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID, TagName: "stable"}, "alice")
	require.NoError(t, err)

	_, err = s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID, TagName: "stable"}, "alice")
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestStore_GetVersion_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetVersion(context.Background(), "nope")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_LatestVersion_NilWhenNone(t *testing.T) {
	s := newTestStore(t)
	rec := seedPrompt(t, s)

	v, err := s.LatestVersion(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Nil(t, v)

	snap, ok, err := s.LatestSnapshot(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestStore_Rollback_WithBackup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	v1, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID, Message: "before edits"}, "alice")
	require.NoError(t, err)

	rec.Template = "Completely rewritten"
	rec.Description = "edited live"
	_, err = s.SavePrompt(ctx, rec)
	require.NoError(t, err)

	result, err := s.Rollback(ctx, RollbackRequest{PromptID: rec.ID, VersionID: v1.ID}, "bob")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, result.RestoredVersionID)
	assert.Equal(t, 1, result.RestoredVersionNumber)
	require.NotNil(t, result.BackupVersionID)

	backup, err := s.GetVersion(ctx, *result.BackupVersionID)
	require.NoError(t, err)
	assert.Equal(t, CommitRollbackBackup, backup.CommitType)
	assert.Equal(t, 2, backup.VersionNumber)
	tmpl, _ := backup.Snapshot.Get("template")
	assert.Equal(t, "Completely rewritten", tmpl, "backup captures pre-rollback live state")

	restored, err := s.GetPrompt(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}\nWelcome aboard", restored.Template)
	assert.Equal(t, "", restored.Description)
}

func TestStore_Rollback_NoBackup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	v1, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
	require.NoError(t, err)

	off := false
	result, err := s.Rollback(ctx, RollbackRequest{PromptID: rec.ID, VersionID: v1.ID, CreateBackup: &off}, "alice")
	require.NoError(t, err)
	assert.Nil(t, result.BackupVersionID)

	_, total, err := s.ListVersions(ctx, rec.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStore_Rollback_VersionFromOtherPrompt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	other, err := s.SavePrompt(ctx, &Record{Name: "other", Template: "x"})
	require.NoError(t, err)
	v, err := s.CreateVersion(ctx, CommitRequest{PromptID: other.ID}, "alice")
	require.NoError(t, err)

	_, err = s.Rollback(ctx, RollbackRequest{PromptID: rec.ID, VersionID: v.ID}, "alice")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_ListVersions_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	for i := 0; i < 5; i++ {
		_, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
		require.NoError(t, err)
	}

	page, total, err := s.ListVersions(ctx, rec.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, 5, page[0].VersionNumber, "newest first")
	assert.Equal(t, 4, page[1].VersionNumber)

	page, total, err = s.ListVersions(ctx, rec.ID, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 1)
	assert.Equal(t, 1, page[0].VersionNumber)

	page, total, err = s.ListVersions(ctx, "missing", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, page)
}

func TestStore_SetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	v1, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
	require.NoError(t, err)
	v2, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
	require.NoError(t, err)

	stable := "stable"
	require.NoError(t, s.SetTag(ctx, v1.ID, &stable))

	got, err := s.GetVersion(ctx, v1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TagName)
	assert.Equal(t, "stable", *got.TagName)

	err = s.SetTag(ctx, v2.ID, &stable)
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))

	require.NoError(t, s.SetTag(ctx, v1.ID, nil))
	got, err = s.GetVersion(ctx, v1.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TagName)

	require.NoError(t, s.SetTag(ctx, v2.ID, &stable), "cleared tag is reusable")

	err = s.SetTag(ctx, "missing", &stable)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_SetPinned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	v, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
	require.NoError(t, err)

	require.NoError(t, s.SetPinned(ctx, v.ID, true))
	got, err := s.GetVersion(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)

	require.NoError(t, s.SetPinned(ctx, v.ID, false))
	got, err = s.GetVersion(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPinned)

	err = s.SetPinned(ctx, "missing", true)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_Cleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	versions := make([]*VersionRecord, 0, 4)
	for i := 0; i < 4; i++ {
		v, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
		require.NoError(t, err)
		versions = append(versions, v)
	}

	// Age versions 1-3 past any cutoff; version 4 stays recent.
	old := time.Now().UTC().AddDate(0, 0, -200)
	_, err := s.db.ExecContext(ctx,
		`UPDATE prompt_versions SET created_at = ? WHERE prompt_id = ? AND version_number <= 3`,
		old, rec.ID)
	require.NoError(t, err)

	require.NoError(t, s.SetPinned(ctx, versions[1].ID, true))

	deleted, err := s.Cleanup(ctx, 90, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "aged versions 1 and 3 go; 2 is pinned, 4 is recent")

	_, total, err := s.ListVersions(ctx, rec.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = s.GetVersion(ctx, versions[1].ID)
	assert.NoError(t, err, "pinned version survives")
	_, err = s.GetVersion(ctx, versions[0].ID)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_Cleanup_MinKeepOverridesAge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := seedPrompt(t, s)

	for i := 0; i < 3; i++ {
		_, err := s.CreateVersion(ctx, CommitRequest{PromptID: rec.ID}, "alice")
		require.NoError(t, err)
	}
	old := time.Now().UTC().AddDate(0, 0, -200)
	_, err := s.db.ExecContext(ctx,
		`UPDATE prompt_versions SET created_at = ? WHERE prompt_id = ?`, old, rec.ID)
	require.NoError(t, err)

	deleted, err := s.Cleanup(ctx, 90, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted, "retention floor keeps everything despite age")
}
