// Package prompt implements version tracking for prompt records: the
// persistence store, the typed request model, and the diff orchestration
// that compares two snapshots of a record.
package prompt

import (
	"time"

	"github.com/promptvc/promptvc/diff"
)

// Snapshot is a complete field-value mapping representing either a persisted
// version or the current live state of a prompt record. Key order is
// preserved because diff output order follows it.
type Snapshot = *diff.Object

// CommitType classifies how a version came to exist.
type CommitType string

const (
	CommitManual         CommitType = "manual"
	CommitAuto           CommitType = "auto"
	CommitRollbackBackup CommitType = "rollback-backup"
)

// VersionRecord is one committed version of a prompt record.
type VersionRecord struct {
	ID            string     `json:"id"`
	PromptID      string     `json:"prompt_id"`
	VersionNumber int        `json:"version_number"`
	CommitMessage string     `json:"commit_message"`
	CommitType    CommitType `json:"commit_type"`
	Snapshot      Snapshot   `json:"snapshot"`
	TagName       *string    `json:"tag_name,omitempty"`
	IsPinned      bool       `json:"is_pinned"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
}

// VersionSummary is a version without its snapshot, for history listings.
type VersionSummary struct {
	ID            string     `json:"id"`
	PromptID      string     `json:"prompt_id"`
	VersionNumber int        `json:"version_number"`
	CommitMessage string     `json:"commit_message"`
	CommitType    CommitType `json:"commit_type"`
	TagName       *string    `json:"tag_name,omitempty"`
	IsPinned      bool       `json:"is_pinned"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
}

// ChangeEntry is one field's change between two snapshots. Exactly one
// payload is populated: Lines for textual fields, Paths for structured
// fields, Old/NewValue for everything else.
type ChangeEntry struct {
	Field      string            `json:"field"`
	ChangeType diff.ChangeKind   `json:"change_type"`
	Lines      []diff.LineOp     `json:"lines,omitempty"`
	Paths      []diff.PathChange `json:"paths,omitempty"`
	OldValue   any               `json:"old_value,omitempty"`
	NewValue   any               `json:"new_value,omitempty"`
}

// Field classification is a fixed table, not data-driven: free-text fields
// get a line diff, nested configuration fields a structural diff, and
// everything else a raw value comparison.
var (
	textualFields = map[string]bool{
		"template":      true,
		"system_prompt": true,
		"description":   true,
	}
	structuredFields = map[string]bool{
		"model_config": true,
		"variables":    true,
		"metadata":     true,
	}
)
