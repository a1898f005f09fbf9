package diff

// ChangeKind classifies a structural or field-level change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// PathChange describes one change at a dot-separated path inside a nested
// value. The top-level path is the literal "root".
type PathChange struct {
	Path     string     `json:"path"`
	Kind     ChangeKind `json:"kind"`
	OldValue any        `json:"old_value,omitempty"`
	NewValue any        `json:"new_value,omitempty"`
}

// DiffValues recursively compares two JSON-like values and returns the
// ordered changes between them. path accumulates the dot-separated location
// and is empty at the top level.
//
// Only mappings are recursed into. Sequences are deliberately opaque: a
// changed sequence is reported as one whole-value modified entry, never
// diffed element-wise.
func DiffValues(oldVal, newVal any, path string) []PathChange {
	if Equal(oldVal, newVal) {
		return nil
	}

	at := path
	if at == "" {
		at = "root"
	}

	if oldVal == nil {
		return []PathChange{{Path: at, Kind: ChangeAdded, NewValue: newVal}}
	}
	if newVal == nil {
		return []PathChange{{Path: at, Kind: ChangeRemoved, OldValue: oldVal}}
	}

	if kindOf(oldVal) != kindOf(newVal) {
		return []PathChange{{Path: at, Kind: ChangeModified, OldValue: oldVal, NewValue: newVal}}
	}

	oldObj, oldIsMap := oldVal.(*Object)
	newObj, newIsMap := newVal.(*Object)
	if oldIsMap && newIsMap {
		var changes []PathChange
		for _, key := range unionKeys(oldObj, newObj) {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			ov, inOld := oldObj.Get(key)
			nv, inNew := newObj.Get(key)
			switch {
			case !inOld:
				changes = append(changes, PathChange{Path: childPath, Kind: ChangeAdded, NewValue: nv})
			case !inNew:
				changes = append(changes, PathChange{Path: childPath, Kind: ChangeRemoved, OldValue: ov})
			default:
				changes = append(changes, DiffValues(ov, nv, childPath)...)
			}
		}
		return changes
	}

	// Scalars and sequences: unequal by the check above, report whole.
	return []PathChange{{Path: at, Kind: ChangeModified, OldValue: oldVal, NewValue: newVal}}
}

// unionKeys returns the union of both mappings' keys in first-occurrence
// order: the old mapping's keys first, then any new-only keys.
func unionKeys(oldObj, newObj *Object) []string {
	keys := make([]string, 0, oldObj.Len()+newObj.Len())
	keys = append(keys, oldObj.Keys()...)
	for _, key := range newObj.Keys() {
		if !oldObj.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}
