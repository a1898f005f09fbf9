// Package diff computes human-reviewable change descriptions between two
// states of a prompt record: line-level diffs for text fields and recursive
// structural diffs for nested configuration values.
//
// Values flowing through the engines are JSON-like: nil, bool, float64,
// string, []any, or *Object. Object preserves key insertion order because
// union-key iteration order is observable in diff output.
package diff

import (
	"bytes"
	"encoding/json"

	"github.com/promptvc/promptvc/errors"
)

// Object is an insertion-ordered string-keyed mapping.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered mapping.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores a value under key, appending the key on first insertion.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not mutate it.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON serializes the mapping preserving key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (o *Object) UnmarshalJSON(data []byte) (err error) {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Object)
	if !ok {
		return errors.New("value is not a JSON object")
	}
	*o = *parsed
	return nil
}

// ParseValue decodes JSON bytes into the diff value model, preserving
// object key order.
func ParseValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := DecodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode value")
	}
	return v, nil
}

// DecodeValue reads one JSON value from dec into the diff value model.
func DecodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// nil, bool, float64, or string
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.Newf("expected object key, got %v", keyTok)
			}
			val, err := DecodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := DecodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	default:
		return nil, errors.Newf("unexpected delimiter %v", delim)
	}
}

// valueKind is the closed set of runtime kinds a diff value can have.
type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindSequence
	kindMapping
)

func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case float64, int, int64, json.Number:
		return kindNumber
	case string:
		return kindString
	case []any:
		return kindSequence
	case *Object:
		return kindMapping
	default:
		// Unknown Go types compare as opaque scalars.
		return kindNumber + 100
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Equal reports structural equality between two diff values. Mappings
// compare by key set and member values regardless of key order; sequences
// compare element-wise in order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.keys {
			other, present := bv.Get(key)
			if !present || !Equal(av.values[key], other) {
				return false
			}
		}
		return true
	default:
		if af, ok := toFloat(a); ok {
			bf, bok := toFloat(b)
			return bok && af == bf
		}
		return false
	}
}
