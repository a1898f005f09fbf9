package prompt

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/promptvc/promptvc/diff"
	"github.com/promptvc/promptvc/errors"
)

// SnapshotSource resolves the snapshots a diff compares. The store satisfies
// it; tests substitute fakes.
type SnapshotSource interface {
	// VersionSnapshot returns a persisted version's snapshot, ErrNotFound
	// when no such version exists.
	VersionSnapshot(ctx context.Context, versionID string) (Snapshot, error)
	// LatestSnapshot returns the most recently committed snapshot of a
	// prompt; ok is false when the prompt has no versions.
	LatestSnapshot(ctx context.Context, promptID string) (Snapshot, bool, error)
	// LiveSnapshot builds a snapshot of the prompt's current live state.
	LiveSnapshot(ctx context.Context, promptID string) (Snapshot, error)
}

// DiffResult is the ordered list of per-field changes between two snapshots.
type DiffResult struct {
	PromptID string        `json:"prompt_id"`
	Base     string        `json:"base"`
	Target   string        `json:"target"`
	Changes  []ChangeEntry `json:"changes"`
}

// Differ resolves diff requests against a snapshot source.
type Differ struct {
	source        SnapshotSource
	maxFieldBytes int
	logger        *zap.SugaredLogger
}

// NewDiffer creates a differ. maxFieldBytes caps the size of a single field
// value that still gets a fine-grained diff; oversized fields degrade to a
// whole-value comparison. Zero or negative disables the ceiling.
func NewDiffer(source SnapshotSource, maxFieldBytes int, logger *zap.SugaredLogger) *Differ {
	return &Differ{source: source, maxFieldBytes: maxFieldBytes, logger: logger}
}

// Diff resolves the base and target snapshots for a request and compares
// them field by field. The base defaults to the latest committed version, or
// an empty snapshot when the prompt has never been committed; the target
// defaults to the live state.
func (d *Differ) Diff(ctx context.Context, req DiffRequest) (*DiffResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &DiffResult{PromptID: req.PromptID}

	var base Snapshot
	var err error
	switch {
	case req.BaseVersionID != "":
		base, err = d.source.VersionSnapshot(ctx, req.BaseVersionID)
		if err != nil {
			return nil, err
		}
		result.Base = req.BaseVersionID
	default:
		var ok bool
		base, ok, err = d.source.LatestSnapshot(ctx, req.PromptID)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Base = "latest"
		} else {
			base = diff.NewObject()
			result.Base = "empty"
		}
	}

	var target Snapshot
	if req.TargetVersionID != "" {
		target, err = d.source.VersionSnapshot(ctx, req.TargetVersionID)
		if err != nil {
			return nil, err
		}
		result.Target = req.TargetVersionID
	} else {
		target, err = d.source.LiveSnapshot(ctx, req.PromptID)
		if err != nil {
			return nil, err
		}
		result.Target = "live"
	}

	changes, err := d.compare(ctx, base, target)
	if err != nil {
		return nil, err
	}
	result.Changes = changes
	return result, nil
}

// compare walks the union of both snapshots' fields: base fields in base
// order, then target-only fields in target order. Cancellation is checked
// between fields, never mid-field.
func (d *Differ) compare(ctx context.Context, base, target Snapshot) ([]ChangeEntry, error) {
	changes := []ChangeEntry{}
	fields := unionFields(base, target)

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrTimeout, err.Error())
		}

		oldVal, inBase := base.Get(field)
		newVal, inTarget := target.Get(field)
		if inBase == inTarget && diff.Equal(oldVal, newVal) {
			continue
		}

		entry := ChangeEntry{Field: field, ChangeType: changeKind(inBase, inTarget)}
		switch {
		case textualFields[field]:
			d.fillTextual(&entry, oldVal, inBase, newVal, inTarget)
		case structuredFields[field]:
			d.fillStructural(&entry, field, oldVal, newVal)
		default:
			entry.OldValue = oldVal
			entry.NewValue = newVal
		}
		changes = append(changes, entry)
	}
	return changes, nil
}

func changeKind(inBase, inTarget bool) diff.ChangeKind {
	switch {
	case !inBase:
		return diff.ChangeAdded
	case !inTarget:
		return diff.ChangeRemoved
	default:
		return diff.ChangeModified
	}
}

// fillTextual produces a line diff when both sides are strings or absent;
// anything else falls back to a raw value comparison. An absent side diffs
// as empty text.
func (d *Differ) fillTextual(entry *ChangeEntry, oldVal any, inBase bool, newVal any, inTarget bool) {
	oldText, oldOK := stringOrAbsent(oldVal, inBase)
	newText, newOK := stringOrAbsent(newVal, inTarget)
	if !oldOK || !newOK || d.oversize(len(oldText)) || d.oversize(len(newText)) {
		entry.OldValue = oldVal
		entry.NewValue = newVal
		return
	}
	entry.Lines = diff.DiffLines(oldText, newText)
}

// fillStructural produces a recursive value diff, or a raw comparison when
// either side's encoding exceeds the size ceiling.
func (d *Differ) fillStructural(entry *ChangeEntry, field string, oldVal, newVal any) {
	if d.oversize(encodedSize(oldVal)) || d.oversize(encodedSize(newVal)) {
		if d.logger != nil {
			d.logger.Debugw("Field exceeds diff size ceiling, comparing whole values",
				"field", field,
				"max_field_bytes", d.maxFieldBytes,
			)
		}
		entry.OldValue = oldVal
		entry.NewValue = newVal
		return
	}
	entry.Paths = diff.DiffValues(oldVal, newVal, "")
}

func (d *Differ) oversize(n int) bool {
	return d.maxFieldBytes > 0 && n > d.maxFieldBytes
}

func stringOrAbsent(v any, present bool) (string, bool) {
	if !present {
		return "", true
	}
	s, ok := v.(string)
	return s, ok
}

func encodedSize(v any) int {
	if v == nil {
		return 0
	}
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}

func unionFields(base, target Snapshot) []string {
	fields := make([]string, 0, base.Len()+target.Len())
	fields = append(fields, base.Keys()...)
	for _, k := range target.Keys() {
		if !base.Has(k) {
			fields = append(fields, k)
		}
	}
	return fields
}
