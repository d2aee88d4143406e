package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultFrequentItemsCapacity bounds the space-saving sketch when no
// capacity is configured.
const DefaultFrequentItemsCapacity = 128

// ItemCount is one entry in a frequent-items result. Count may overestimate
// the true frequency by at most Error.
type ItemCount struct {
	Item  string `json:"item"`
	Count int64  `json:"count"`
	Error int64  `json:"error,omitempty"`
}

// FrequentItems is a space-saving sketch tracking the heaviest hitters among
// the values offered to it. When the sketch is full, the item with the
// smallest count is evicted and its count becomes the newcomer's error bound.
type FrequentItems struct {
	capacity int
	counters map[string]*itemCounter
}

type itemCounter struct {
	count int64
	err   int64
}

// NewFrequentItems creates a sketch holding at most capacity distinct items.
func NewFrequentItems(capacity int) *FrequentItems {
	if capacity <= 0 {
		capacity = DefaultFrequentItemsCapacity
	}
	return &FrequentItems{
		capacity: capacity,
		counters: make(map[string]*itemCounter, capacity),
	}
}

// Offer adds weight occurrences of item to the sketch.
func (f *FrequentItems) Offer(item string, weight int64) {
	if weight <= 0 {
		return
	}

	if c, ok := f.counters[item]; ok {
		c.count += weight
		return
	}

	if len(f.counters) < f.capacity {
		f.counters[item] = &itemCounter{count: weight}
		return
	}

	// Evict the current minimum; the newcomer inherits its count as the
	// overestimation bound.
	minItem := ""
	var minCount int64 = -1
	for it, c := range f.counters {
		if minCount < 0 || c.count < minCount || (c.count == minCount && it < minItem) {
			minItem = it
			minCount = c.count
		}
	}
	delete(f.counters, minItem)
	f.counters[item] = &itemCounter{count: minCount + weight, err: minCount}
}

// Estimate returns the estimated count for an item (zero if untracked).
func (f *FrequentItems) Estimate(item string) int64 {
	if c, ok := f.counters[item]; ok {
		return c.count
	}
	return 0
}

// Top returns up to n items ordered by estimated count descending. Ties are
// broken lexically so results are deterministic.
func (f *FrequentItems) Top(n int) []ItemCount {
	out := make([]ItemCount, 0, len(f.counters))
	for item, c := range f.counters {
		out = append(out, ItemCount{Item: item, Count: c.count, Error: c.err})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Item < out[j].Item
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Merge folds another sketch into this one by re-offering its counters.
func (f *FrequentItems) Merge(other *FrequentItems) {
	if other == nil {
		return
	}
	// Deterministic iteration keeps merge results stable.
	for _, entry := range other.Top(0) {
		f.Offer(entry.Item, entry.Count)
		if entry.Error > 0 {
			if c, ok := f.counters[entry.Item]; ok && c.err < entry.Error {
				c.err = entry.Error
			}
		}
	}
}

type frequentItemsState struct {
	Capacity int         `json:"capacity"`
	Items    []ItemCount `json:"items"`
}

// MarshalJSON serializes the sketch.
func (f *FrequentItems) MarshalJSON() ([]byte, error) {
	return json.Marshal(frequentItemsState{
		Capacity: f.capacity,
		Items:    f.Top(0),
	})
}

// UnmarshalJSON restores the sketch.
func (f *FrequentItems) UnmarshalJSON(data []byte) error {
	var st frequentItemsState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Capacity <= 0 {
		return fmt.Errorf("frequent items: invalid capacity %d", st.Capacity)
	}
	f.capacity = st.Capacity
	f.counters = make(map[string]*itemCounter, st.Capacity)
	for _, it := range st.Items {
		f.counters[it.Item] = &itemCounter{count: it.Count, err: it.Error}
	}
	return nil
}
