package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_PreservesKeyOrder(t *testing.T) {
	v, err := ParseValue([]byte(`{"zeta": 1, "alpha": 2, "mid": {"b": 1, "a": 2}}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())

	mid, ok := obj.Get("mid")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, mid.(*Object).Keys())
}

func TestObject_MarshalJSON_OrderedRoundTrip(t *testing.T) {
	raw := `{"z":1,"a":"two","nested":{"y":[1,2],"x":null},"flag":true}`
	v, err := ParseValue([]byte(raw))
	require.NoError(t, err)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestObject_SetOverwriteKeepsPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("first", 1)
	obj.Set("second", 2)
	obj.Set("first", 10)

	assert.Equal(t, []string{"first", "second"}, obj.Keys())
	v, _ := obj.Get("first")
	assert.Equal(t, 10, v)
}

func TestObject_UnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"b": 1, "a": 2}`), &obj))
	assert.Equal(t, []string{"b", "a"}, obj.Keys())

	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &obj), "non-object input should fail")
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal scalars", `1`, `1.0`, true},
		{"unequal scalars", `1`, `2`, false},
		{"string vs number", `"1"`, `1`, false},
		{"null vs null", `null`, `null`, true},
		{"null vs false", `null`, `false`, false},
		{"equal sequences", `[1, [2, 3]]`, `[1, [2, 3]]`, true},
		{"sequence order matters", `[1, 2]`, `[2, 1]`, false},
		{"mapping key order ignored", `{"a": 1, "b": 2}`, `{"b": 2, "a": 1}`, true},
		{"mapping value differs", `{"a": 1}`, `{"a": 2}`, false},
		{"mapping key missing", `{"a": 1}`, `{"a": 1, "b": 2}`, false},
		{"deep nesting", `{"a": {"b": [1, {"c": null}]}}`, `{"a": {"b": [1, {"c": null}]}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustParse(t, tt.a)
			b := mustParse(t, tt.b)
			assert.Equal(t, tt.want, Equal(a, b))
		})
	}
}

func TestEqual_MixedGoNumbers(t *testing.T) {
	assert.True(t, Equal(int(3), float64(3)))
	assert.True(t, Equal(int64(7), int(7)))
	assert.False(t, Equal(int(3), "3"))
}
