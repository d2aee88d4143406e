package core

import (
	"encoding/json"
)

// SketchConfig sizes the per-column sketches. The zero value selects the
// package defaults.
type SketchConfig struct {
	FrequentItemsCapacity int `json:"frequent_items_capacity" yaml:"frequent_items_capacity"`
	CardinalityK          int `json:"cardinality_k" yaml:"cardinality_k"`
	SampleSize            int `json:"sample_size" yaml:"sample_size"`
}

// ColumnProfile tracks the statistics of a single column: raw and null
// counts, inferred-type histogram, numeric summary, approximate quantiles,
// frequent items, and approximate cardinality.
//
// ColumnProfile is not internally synchronized; the owning DatasetProfile
// serializes access.
type ColumnProfile struct {
	name        string
	total       int64
	nulls       int64
	typeCounts  map[DataType]int64
	numbers     *NumberTracker
	frequent    *FrequentItems
	cardinality *Cardinality
	sampler     *Sampler
}

// NewColumnProfile creates an empty column profile.
func NewColumnProfile(name string, cfg SketchConfig) *ColumnProfile {
	return &ColumnProfile{
		name:        name,
		typeCounts:  make(map[DataType]int64),
		numbers:     NewNumberTracker(),
		frequent:    NewFrequentItems(cfg.FrequentItemsCapacity),
		cardinality: NewCardinality(cfg.CardinalityK),
		sampler:     NewSampler(cfg.SampleSize),
	}
}

// Name returns the column name.
func (c *ColumnProfile) Name() string { return c.name }

// TotalCount returns the number of values tracked, nulls included.
func (c *ColumnProfile) TotalCount() int64 { return c.total }

// NullCount returns the number of null values tracked.
func (c *ColumnProfile) NullCount() int64 { return c.nulls }

// Track feeds one value into all trackers.
func (c *ColumnProfile) Track(value interface{}) {
	c.total++

	t := InferType(value)
	c.typeCounts[t]++
	if t == TypeNull {
		c.nulls++
		return
	}
	if t == TypeUnknown {
		return
	}

	repr := CanonicalString(value)
	c.frequent.Offer(repr, 1)
	c.cardinality.Offer(repr)

	if t == TypeIntegral || t == TypeFractional {
		if x, ok := NumericValue(value); ok {
			c.numbers.Track(x)
			c.sampler.Track(x)
		}
	}
}

// InferredType picks the dominant type for the column: a strict majority of
// non-null values wins; mixed non-null types that include strings resolve to
// string; otherwise the precedence is fractional, integral, boolean, string.
func (c *ColumnProfile) InferredType() DataType {
	nonNull := c.total - c.nulls
	if nonNull <= 0 {
		return TypeNull
	}

	candidates := []DataType{TypeFractional, TypeIntegral, TypeBoolean, TypeString}
	for _, t := range candidates {
		if c.typeCounts[t]*2 > nonNull {
			return t
		}
	}

	if c.typeCounts[TypeString] > 0 {
		return TypeString
	}
	for _, t := range candidates {
		if c.typeCounts[t] > 0 {
			return t
		}
	}
	return TypeUnknown
}

// Merge folds another column profile into this one.
func (c *ColumnProfile) Merge(other *ColumnProfile) {
	if other == nil {
		return
	}
	c.total += other.total
	c.nulls += other.nulls
	for t, n := range other.typeCounts {
		c.typeCounts[t] += n
	}
	c.numbers.Merge(other.numbers)
	c.frequent.Merge(other.frequent)
	c.cardinality.Merge(other.cardinality)
	c.sampler.Merge(other.sampler)
}

type columnProfileState struct {
	Name        string             `json:"name"`
	Total       int64              `json:"total"`
	Nulls       int64              `json:"nulls"`
	TypeCounts  map[DataType]int64 `json:"type_counts"`
	Numbers     *NumberTracker     `json:"numbers"`
	Frequent    *FrequentItems     `json:"frequent"`
	Cardinality *Cardinality       `json:"cardinality"`
	Sampler     *Sampler           `json:"sampler"`
}

// MarshalJSON serializes the column profile with full sketch state so
// profiles stay mergeable after a round-trip through disk.
func (c *ColumnProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnProfileState{
		Name:        c.name,
		Total:       c.total,
		Nulls:       c.nulls,
		TypeCounts:  c.typeCounts,
		Numbers:     c.numbers,
		Frequent:    c.frequent,
		Cardinality: c.cardinality,
		Sampler:     c.sampler,
	})
}

// UnmarshalJSON restores the column profile.
func (c *ColumnProfile) UnmarshalJSON(data []byte) error {
	var st columnProfileState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	c.name = st.Name
	c.total = st.Total
	c.nulls = st.Nulls
	c.typeCounts = st.TypeCounts
	if c.typeCounts == nil {
		c.typeCounts = make(map[DataType]int64)
	}
	c.numbers = st.Numbers
	if c.numbers == nil {
		c.numbers = NewNumberTracker()
	}
	c.frequent = st.Frequent
	if c.frequent == nil {
		c.frequent = NewFrequentItems(0)
	}
	c.cardinality = st.Cardinality
	if c.cardinality == nil {
		c.cardinality = NewCardinality(0)
	}
	c.sampler = st.Sampler
	if c.sampler == nil {
		c.sampler = NewSampler(0)
	}
	return nil
}
