package core

import (
	"encoding/json"
	"math"
)

// NumberTracker maintains a running numeric summary (min, max, mean,
// variance) using Welford's online algorithm. Merging uses the parallel
// variance combination so profiles can be unioned after the fact.
type NumberTracker struct {
	count int64
	min   float64
	max   float64
	mean  float64
	m2    float64
}

// NewNumberTracker returns an empty tracker.
func NewNumberTracker() *NumberTracker {
	return &NumberTracker{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Track feeds one value into the summary.
func (n *NumberTracker) Track(x float64) {
	n.count++
	if x < n.min {
		n.min = x
	}
	if x > n.max {
		n.max = x
	}
	delta := x - n.mean
	n.mean += delta / float64(n.count)
	n.m2 += delta * (x - n.mean)
}

// Count returns the number of tracked values.
func (n *NumberTracker) Count() int64 { return n.count }

// Min returns the smallest tracked value, or NaN when empty.
func (n *NumberTracker) Min() float64 {
	if n.count == 0 {
		return math.NaN()
	}
	return n.min
}

// Max returns the largest tracked value, or NaN when empty.
func (n *NumberTracker) Max() float64 {
	if n.count == 0 {
		return math.NaN()
	}
	return n.max
}

// Mean returns the running mean, or NaN when empty.
func (n *NumberTracker) Mean() float64 {
	if n.count == 0 {
		return math.NaN()
	}
	return n.mean
}

// Variance returns the sample variance, or NaN with fewer than two values.
func (n *NumberTracker) Variance() float64 {
	if n.count < 2 {
		return math.NaN()
	}
	return n.m2 / float64(n.count-1)
}

// StdDev returns the sample standard deviation, or NaN with fewer than two
// values.
func (n *NumberTracker) StdDev() float64 {
	v := n.Variance()
	if math.IsNaN(v) {
		return v
	}
	return math.Sqrt(v)
}

// Merge folds another tracker into this one.
func (n *NumberTracker) Merge(other *NumberTracker) {
	if other == nil || other.count == 0 {
		return
	}
	if n.count == 0 {
		*n = *other
		return
	}

	if other.min < n.min {
		n.min = other.min
	}
	if other.max > n.max {
		n.max = other.max
	}

	total := n.count + other.count
	delta := other.mean - n.mean
	n.mean += delta * float64(other.count) / float64(total)
	n.m2 += other.m2 + delta*delta*float64(n.count)*float64(other.count)/float64(total)
	n.count = total
}

type numberTrackerState struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
}

// MarshalJSON serializes the tracker state. Infinities from the empty
// tracker are clamped to zero so the output stays valid JSON.
func (n *NumberTracker) MarshalJSON() ([]byte, error) {
	st := numberTrackerState{Count: n.count, Mean: n.mean, M2: n.m2}
	if n.count > 0 {
		st.Min = n.min
		st.Max = n.max
	}
	return json.Marshal(st)
}

// UnmarshalJSON restores the tracker state.
func (n *NumberTracker) UnmarshalJSON(data []byte) error {
	var st numberTrackerState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	n.count = st.Count
	n.mean = st.Mean
	n.m2 = st.M2
	if st.Count > 0 {
		n.min = st.Min
		n.max = st.Max
	} else {
		n.min = math.Inf(1)
		n.max = math.Inf(-1)
	}
	return nil
}
