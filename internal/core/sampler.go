package core

import (
	"encoding/json"
	"math"
	"math/rand"
	"sort"
)

// DefaultSampleSize is the reservoir capacity used when none is configured.
const DefaultSampleSize = 1024

// Sampler keeps a uniform reservoir sample of numeric values for quantile
// estimation. While fewer values than the capacity have been seen the
// quantiles are exact.
type Sampler struct {
	capacity int
	seen     int64
	samples  []float64
	rng      *rand.Rand
}

// NewSampler creates a reservoir of the given capacity.
func NewSampler(capacity int) *Sampler {
	if capacity <= 0 {
		capacity = DefaultSampleSize
	}
	return &Sampler{
		capacity: capacity,
		samples:  make([]float64, 0, capacity),
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// Track offers one value to the reservoir.
func (s *Sampler) Track(x float64) {
	s.seen++
	if len(s.samples) < s.capacity {
		s.samples = append(s.samples, x)
		return
	}
	// Vitter's algorithm R
	j := s.rng.Int63n(s.seen)
	if j < int64(s.capacity) {
		s.samples[j] = x
	}
}

// Seen returns how many values have been offered.
func (s *Sampler) Seen() int64 { return s.seen }

// Quantile estimates the q-quantile (0 <= q <= 1) by sorted interpolation
// over the reservoir. Returns NaN when empty.
func (s *Sampler) Quantile(q float64) float64 {
	if len(s.samples) == 0 {
		return math.NaN()
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	sorted := make([]float64, len(s.samples))
	copy(sorted, s.samples)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Merge combines another reservoir into this one. When the union fits in
// the capacity the merge is lossless; otherwise samples are drawn from each
// side in proportion to how many values it has seen.
func (s *Sampler) Merge(other *Sampler) {
	if other == nil || other.seen == 0 {
		return
	}
	if s.seen == 0 {
		s.seen = other.seen
		s.samples = append(s.samples[:0], other.samples...)
		return
	}

	total := s.seen + other.seen
	if len(s.samples)+len(other.samples) <= s.capacity {
		s.samples = append(s.samples, other.samples...)
		s.seen = total
		return
	}

	merged := make([]float64, 0, s.capacity)
	for len(merged) < s.capacity {
		pick := s.rng.Int63n(total)
		if pick < s.seen && len(s.samples) > 0 {
			merged = append(merged, s.samples[s.rng.Intn(len(s.samples))])
		} else if len(other.samples) > 0 {
			merged = append(merged, other.samples[s.rng.Intn(len(other.samples))])
		}
	}
	s.samples = merged
	s.seen = total
}

type samplerState struct {
	Capacity int       `json:"capacity"`
	Seen     int64     `json:"seen"`
	Samples  []float64 `json:"samples"`
}

// MarshalJSON serializes the reservoir.
func (s *Sampler) MarshalJSON() ([]byte, error) {
	return json.Marshal(samplerState{
		Capacity: s.capacity,
		Seen:     s.seen,
		Samples:  s.samples,
	})
}

// UnmarshalJSON restores the reservoir.
func (s *Sampler) UnmarshalJSON(data []byte) error {
	var st samplerState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Capacity <= 0 {
		st.Capacity = DefaultSampleSize
	}
	s.capacity = st.Capacity
	s.seen = st.Seen
	s.samples = st.Samples
	if s.samples == nil {
		s.samples = make([]float64, 0, s.capacity)
	}
	s.rng = rand.New(rand.NewSource(rand.Int63()))
	return nil
}
