package core

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
)

// DefaultCardinalityK is the sketch size used when none is configured.
const DefaultCardinalityK = 256

// Cardinality estimates the number of distinct values using a KMV
// (k-minimum-values) sketch over 64-bit FNV-1a hashes. While fewer than k
// distinct values have been seen the estimate is exact.
type Cardinality struct {
	k       int
	hashes  map[uint64]struct{}
	maxHash uint64 // largest hash currently retained; 0 when sketch not full
}

// NewCardinality creates a sketch retaining at most k minimum hashes.
func NewCardinality(k int) *Cardinality {
	if k <= 0 {
		k = DefaultCardinalityK
	}
	return &Cardinality{
		k:      k,
		hashes: make(map[uint64]struct{}, k),
	}
}

// Offer adds one value to the sketch.
func (c *Cardinality) Offer(item string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(item))
	c.offerHash(h.Sum64())
}

func (c *Cardinality) offerHash(v uint64) {
	if _, ok := c.hashes[v]; ok {
		return
	}
	if len(c.hashes) < c.k {
		c.hashes[v] = struct{}{}
		if v > c.maxHash {
			c.maxHash = v
		}
		return
	}
	if v >= c.maxHash {
		return
	}
	delete(c.hashes, c.maxHash)
	c.hashes[v] = struct{}{}
	c.maxHash = 0
	for h := range c.hashes {
		if h > c.maxHash {
			c.maxHash = h
		}
	}
}

// Estimate returns the estimated distinct count.
func (c *Cardinality) Estimate() float64 {
	n := len(c.hashes)
	if n < c.k {
		return float64(n)
	}
	// kth minimum hash normalized into (0,1]; estimate is (k-1)/r.
	r := float64(c.maxHash) / float64(math.MaxUint64)
	if r <= 0 {
		return float64(n)
	}
	return float64(c.k-1) / r
}

// Merge unions another sketch into this one, keeping the k smallest hashes.
func (c *Cardinality) Merge(other *Cardinality) {
	if other == nil {
		return
	}
	hashes := make([]uint64, 0, len(other.hashes))
	for h := range other.hashes {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	for _, h := range hashes {
		c.offerHash(h)
	}
}

type cardinalityState struct {
	K      int      `json:"k"`
	Hashes []string `json:"hashes"` // hex strings; JSON numbers lose 64-bit precision
}

// MarshalJSON serializes the sketch.
func (c *Cardinality) MarshalJSON() ([]byte, error) {
	hashes := make([]uint64, 0, len(c.hashes))
	for h := range c.hashes {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	encoded := make([]string, len(hashes))
	for i, h := range hashes {
		encoded[i] = strconv.FormatUint(h, 16)
	}
	return json.Marshal(cardinalityState{K: c.k, Hashes: encoded})
}

// UnmarshalJSON restores the sketch.
func (c *Cardinality) UnmarshalJSON(data []byte) error {
	var st cardinalityState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.K <= 0 {
		st.K = DefaultCardinalityK
	}
	c.k = st.K
	c.hashes = make(map[uint64]struct{}, len(st.Hashes))
	c.maxHash = 0
	for _, enc := range st.Hashes {
		h, err := strconv.ParseUint(enc, 16, 64)
		if err != nil {
			return err
		}
		c.hashes[h] = struct{}{}
		if h > c.maxHash {
			c.maxHash = h
		}
	}
	return nil
}
