package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, data string) any {
	t.Helper()
	v, err := ParseValue([]byte(data))
	require.NoError(t, err)
	return v
}

func TestDiffValues_Identity(t *testing.T) {
	values := []string{
		`null`,
		`true`,
		`42`,
		`"text"`,
		`[1, 2, 3]`,
		`{"a": 1, "b": {"c": [1, 2]}}`,
	}
	for _, raw := range values {
		v := mustParse(t, raw)
		assert.Empty(t, DiffValues(v, v, ""), "identical value %s should produce no changes", raw)
	}
}

func TestDiffValues_NullToValue_RootPath(t *testing.T) {
	newVal := mustParse(t, `{"a": 1}`)
	changes := DiffValues(nil, newVal, "")

	require.Len(t, changes, 1)
	assert.Equal(t, "root", changes[0].Path)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.True(t, Equal(newVal, changes[0].NewValue))
	assert.Nil(t, changes[0].OldValue)
}

func TestDiffValues_ValueToNull(t *testing.T) {
	oldVal := mustParse(t, `"gone"`)
	changes := DiffValues(oldVal, nil, "config.note")

	require.Len(t, changes, 1)
	assert.Equal(t, "config.note", changes[0].Path)
	assert.Equal(t, ChangeRemoved, changes[0].Kind)
	assert.Equal(t, "gone", changes[0].OldValue)
}

func TestDiffValues_KindMismatchNoRecursion(t *testing.T) {
	oldVal := mustParse(t, `{"a": 1}`)
	newVal := mustParse(t, `[1]`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 1)
	assert.Equal(t, "root", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.True(t, Equal(oldVal, changes[0].OldValue))
	assert.True(t, Equal(newVal, changes[0].NewValue))
}

func TestDiffValues_MappingRecursion_Order(t *testing.T) {
	oldVal := mustParse(t, `{"a": 1, "b": 2}`)
	newVal := mustParse(t, `{"a": 1, "b": 3, "c": 4}`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 2)

	assert.Equal(t, "b", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Equal(t, float64(2), changes[0].OldValue)
	assert.Equal(t, float64(3), changes[0].NewValue)

	assert.Equal(t, "c", changes[1].Path)
	assert.Equal(t, ChangeAdded, changes[1].Kind)
	assert.Equal(t, float64(4), changes[1].NewValue)
}

func TestDiffValues_RemovedKey(t *testing.T) {
	oldVal := mustParse(t, `{"a": 1, "b": 2}`)
	newVal := mustParse(t, `{"a": 1}`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 1)
	assert.Equal(t, "b", changes[0].Path)
	assert.Equal(t, ChangeRemoved, changes[0].Kind)
	assert.Equal(t, float64(2), changes[0].OldValue)
}

func TestDiffValues_NestedPaths(t *testing.T) {
	oldVal := mustParse(t, `{"model": {"name": "small", "temp": 0.2}}`)
	newVal := mustParse(t, `{"model": {"name": "large", "temp": 0.2, "top_p": 0.9}}`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 2)
	assert.Equal(t, "model.name", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Equal(t, "model.top_p", changes[1].Path)
	assert.Equal(t, ChangeAdded, changes[1].Kind)
}

func TestDiffValues_SequencesAreOpaque(t *testing.T) {
	oldVal := mustParse(t, `{"a": [1, 2]}`)
	newVal := mustParse(t, `{"a": [1, 2, 3]}`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 1)
	assert.Equal(t, "a", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	// Whole arrays carried, no element-level entries.
	assert.True(t, Equal(mustParse(t, `[1, 2]`), changes[0].OldValue))
	assert.True(t, Equal(mustParse(t, `[1, 2, 3]`), changes[0].NewValue))
}

func TestDiffValues_NullMemberBecomesAdded(t *testing.T) {
	oldVal := mustParse(t, `{"a": null}`)
	newVal := mustParse(t, `{"a": 5}`)
	changes := DiffValues(oldVal, newVal, "")

	require.Len(t, changes, 1)
	assert.Equal(t, "a", changes[0].Path)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
	assert.Equal(t, float64(5), changes[0].NewValue)
}

func TestDiffValues_ScalarModified(t *testing.T) {
	changes := DiffValues("old", "new", "")
	require.Len(t, changes, 1)
	assert.Equal(t, "root", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
}

func TestDiffValues_NewOnlyKeysAfterOldKeys(t *testing.T) {
	oldVal := mustParse(t, `{"b": 1, "a": 2}`)
	newVal := mustParse(t, `{"z": 9, "a": 3, "b": 1}`)
	changes := DiffValues(oldVal, newVal, "")

	// Old keys in old order first (b unchanged and skipped, a modified),
	// then new-only keys (z added).
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].Path)
	assert.Equal(t, ChangeModified, changes[0].Kind)
	assert.Equal(t, "z", changes[1].Path)
	assert.Equal(t, ChangeAdded, changes[1].Kind)
}
