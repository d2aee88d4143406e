package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnProfileTrackCounts(t *testing.T) {
	c := NewColumnProfile("age", SketchConfig{})
	c.Track(30)
	c.Track(45)
	c.Track(nil)
	c.Track("not a number")

	assert.Equal(t, int64(4), c.TotalCount())
	assert.Equal(t, int64(1), c.NullCount())

	s := c.Summary()
	assert.Equal(t, int64(2), s.TypeCounts[TypeIntegral])
	assert.Equal(t, int64(1), s.TypeCounts[TypeString])
	assert.Equal(t, int64(1), s.TypeCounts[TypeNull])
}

func TestColumnProfileNumericSummary(t *testing.T) {
	c := NewColumnProfile("price", SketchConfig{})
	for _, v := range []float64{1.5, 2.5, 3.5, 4.5} {
		c.Track(v)
	}

	s := c.Summary()
	require.NotNil(t, s.Numbers)
	assert.Equal(t, int64(4), s.Numbers.Count)
	assert.Equal(t, 1.5, s.Numbers.Min)
	assert.Equal(t, 4.5, s.Numbers.Max)
	assert.InDelta(t, 3.0, s.Numbers.Mean, 1e-9)
	assert.Equal(t, 1.5, s.Quantiles["min"])
	assert.Equal(t, 4.5, s.Quantiles["max"])
	assert.InDelta(t, 3.0, s.Quantiles["median"], 1e-9)
}

func TestColumnProfileNonNumericHasNoNumbers(t *testing.T) {
	c := NewColumnProfile("city", SketchConfig{})
	c.Track("paris")
	c.Track("tokyo")

	s := c.Summary()
	assert.Nil(t, s.Numbers)
	assert.Nil(t, s.Quantiles)
	assert.Equal(t, 2.0, s.EstUniqueCount)
}

func TestColumnProfileStringNumbersAreNumeric(t *testing.T) {
	c := NewColumnProfile("count", SketchConfig{})
	c.Track("10")
	c.Track("20")

	s := c.Summary()
	require.NotNil(t, s.Numbers)
	assert.Equal(t, TypeIntegral, s.InferredType)
	assert.InDelta(t, 15.0, s.Numbers.Mean, 1e-9)
}

func TestColumnProfileInferredType(t *testing.T) {
	tests := []struct {
		name   string
		values []interface{}
		want   DataType
	}{
		{"all integers", []interface{}{1, 2, 3}, TypeIntegral},
		{"majority fractional", []interface{}{1.5, 2.5, 3}, TypeFractional},
		{"mixed with strings", []interface{}{1, "a", 2.5, "b"}, TypeString},
		{"booleans", []interface{}{true, false, true}, TypeBoolean},
		{"nulls ignored for majority", []interface{}{nil, nil, nil, 1, 2}, TypeIntegral},
		{"only nulls", []interface{}{nil, nil}, TypeNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewColumnProfile("col", SketchConfig{})
			for _, v := range tt.values {
				c.Track(v)
			}
			assert.Equal(t, tt.want, c.InferredType())
		})
	}
}

func TestColumnProfileMerge(t *testing.T) {
	a := NewColumnProfile("score", SketchConfig{})
	b := NewColumnProfile("score", SketchConfig{})
	for i := 1; i <= 5; i++ {
		a.Track(i)
	}
	for i := 6; i <= 10; i++ {
		b.Track(i)
	}
	b.Track(nil)

	a.Merge(b)

	assert.Equal(t, int64(11), a.TotalCount())
	assert.Equal(t, int64(1), a.NullCount())

	s := a.Summary()
	require.NotNil(t, s.Numbers)
	assert.Equal(t, int64(10), s.Numbers.Count)
	assert.Equal(t, 1.0, s.Numbers.Min)
	assert.Equal(t, 10.0, s.Numbers.Max)
	assert.Equal(t, 10.0, s.EstUniqueCount)
}

func TestColumnProfileJSONRoundTrip(t *testing.T) {
	c := NewColumnProfile("latency", SketchConfig{})
	for i := 0; i < 50; i++ {
		c.Track(float64(i) * 0.5)
	}
	c.Track(nil)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	restored := &ColumnProfile{}
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, c.Name(), restored.Name())
	assert.Equal(t, c.TotalCount(), restored.TotalCount())
	assert.Equal(t, c.NullCount(), restored.NullCount())

	want := c.Summary()
	got := restored.Summary()
	assert.Equal(t, want.Numbers, got.Numbers)
	assert.Equal(t, want.EstUniqueCount, got.EstUniqueCount)
	assert.Equal(t, want.FrequentItems, got.FrequentItems)

	// Restored profile keeps accepting values
	restored.Track(99.0)
	assert.Equal(t, c.TotalCount()+1, restored.TotalCount())
}
