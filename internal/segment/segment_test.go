package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecKeys(t *testing.T) {
	spec, err := ParseSpec([]string{"country", "plan"}, nil)
	require.NoError(t, err)

	assert.True(t, spec.Enabled())
	assert.Equal(t, ModeKeys, spec.Mode())
	assert.Equal(t, []string{"country", "plan"}, spec.Keys())
}

func TestParseSpecFixed(t *testing.T) {
	spec, err := ParseSpec(nil, [][]Tag{
		{{Key: "env", Value: "prod"}},
		{{Key: "plan", Value: "pro"}, {Key: "env", Value: "prod"}},
	})
	require.NoError(t, err)

	assert.True(t, spec.Enabled())
	assert.Equal(t, ModeFixed, spec.Mode())
	require.Len(t, spec.Fixed(), 2)
	// Fixed segments are stored normalized
	assert.Equal(t, Segment{{Key: "env", Value: "prod"}, {Key: "plan", Value: "pro"}}, spec.Fixed()[1])
}

func TestParseSpecErrors(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		fixed [][]Tag
	}{
		{"both modes", []string{"a"}, [][]Tag{{{Key: "b", Value: "1"}}}},
		{"empty key", []string{""}, nil},
		{"duplicate key", []string{"a", "a"}, nil},
		{"empty fixed segment", nil, [][]Tag{{}}},
		{"fixed empty key", nil, [][]Tag{{{Key: "", Value: "x"}}}},
		{"fixed duplicate key", nil, [][]Tag{{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.keys, tt.fixed)
			assert.Error(t, err)
		})
	}
}

func TestParseSpecEmptyIsDisabled(t *testing.T) {
	spec, err := ParseSpec(nil, nil)
	require.NoError(t, err)
	assert.False(t, spec.Enabled())
	assert.Equal(t, ModeNone, spec.Mode())
}

func TestFromRow(t *testing.T) {
	spec, err := ParseSpec([]string{"country", "plan"}, nil)
	require.NoError(t, err)

	seg, ok := spec.FromRow(map[string]interface{}{"country": "jp", "plan": "pro", "amount": 10})
	require.True(t, ok)
	assert.Equal(t, Segment{{Key: "country", Value: "jp"}, {Key: "plan", Value: "pro"}}, seg)

	// Missing key column means no segment
	_, ok = spec.FromRow(map[string]interface{}{"country": "jp"})
	assert.False(t, ok)
}

func TestFromRowStringifiesValues(t *testing.T) {
	spec, err := ParseSpec([]string{"code"}, nil)
	require.NoError(t, err)

	seg, ok := spec.FromRow(map[string]interface{}{"code": 42})
	require.True(t, ok)
	assert.Equal(t, "42", seg[0].Value)
}

func TestMatchFixed(t *testing.T) {
	spec, err := ParseSpec(nil, [][]Tag{
		{{Key: "env", Value: "prod"}},
		{{Key: "env", Value: "prod"}, {Key: "plan", Value: "pro"}},
		{{Key: "env", Value: "dev"}},
	})
	require.NoError(t, err)

	// Overlapping segments both match
	matched := spec.MatchFixed(map[string]interface{}{"env": "prod", "plan": "pro"})
	assert.Len(t, matched, 2)

	matched = spec.MatchFixed(map[string]interface{}{"env": "prod", "plan": "free"})
	assert.Len(t, matched, 1)

	matched = spec.MatchFixed(map[string]interface{}{"env": "staging"})
	assert.Empty(t, matched)
}

func TestHashIsOrderIndependent(t *testing.T) {
	a := Segment{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	b := Segment{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}

	assert.Equal(t, Hash(a), Hash(b))
	assert.Len(t, Hash(a), 64)

	c := Segment{{Key: "a", Value: "1"}, {Key: "b", Value: "3"}}
	assert.NotEqual(t, Hash(a), Hash(c))
}

func TestCanonicalJSON(t *testing.T) {
	seg := Segment{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}
	assert.Equal(t, `[{"key":"a","value":"1"},{"key":"b","value":"2"}]`, CanonicalJSON(seg))
}
