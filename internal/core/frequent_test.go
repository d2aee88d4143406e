package core

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequentItemsExactBelowCapacity(t *testing.T) {
	f := NewFrequentItems(16)
	f.Offer("a", 5)
	f.Offer("b", 3)
	f.Offer("a", 2)
	f.Offer("c", 1)

	top := f.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, ItemCount{Item: "a", Count: 7}, top[0])
	assert.Equal(t, ItemCount{Item: "b", Count: 3}, top[1])
	assert.Equal(t, int64(1), f.Estimate("c"))
	assert.Equal(t, int64(0), f.Estimate("missing"))
}

func TestFrequentItemsEviction(t *testing.T) {
	f := NewFrequentItems(2)
	f.Offer("a", 10)
	f.Offer("b", 1)
	f.Offer("c", 1) // evicts b, inherits its count as error

	assert.Equal(t, int64(0), f.Estimate("b"))
	assert.Equal(t, int64(2), f.Estimate("c"))

	top := f.Top(0)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Item)
	assert.Equal(t, "c", top[1].Item)
	assert.Equal(t, int64(1), top[1].Error)
}

func TestFrequentItemsHeavyHitterSurvives(t *testing.T) {
	f := NewFrequentItems(8)
	for i := 0; i < 1000; i++ {
		f.Offer("heavy", 1)
		f.Offer(fmt.Sprintf("noise-%d", i), 1)
	}

	top := f.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "heavy", top[0].Item)
	assert.GreaterOrEqual(t, top[0].Count, int64(1000))
}

func TestFrequentItemsMerge(t *testing.T) {
	a := NewFrequentItems(16)
	b := NewFrequentItems(16)
	a.Offer("x", 5)
	a.Offer("y", 2)
	b.Offer("x", 3)
	b.Offer("z", 4)

	a.Merge(b)

	assert.Equal(t, int64(8), a.Estimate("x"))
	assert.Equal(t, int64(4), a.Estimate("z"))
	assert.Equal(t, int64(2), a.Estimate("y"))
}

func TestFrequentItemsJSONRoundTrip(t *testing.T) {
	f := NewFrequentItems(4)
	f.Offer("a", 3)
	f.Offer("b", 1)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	restored := NewFrequentItems(0)
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, f.Top(0), restored.Top(0))

	restored.Offer("a", 1)
	assert.Equal(t, int64(4), restored.Estimate("a"))
}

func TestFrequentItemsIgnoresNonPositiveWeight(t *testing.T) {
	f := NewFrequentItems(4)
	f.Offer("a", 0)
	f.Offer("a", -3)
	assert.Empty(t, f.Top(0))
}
