// Package segment implements dataset segmentation: splitting tracked rows
// into sub-profiles keyed by tag sets, either derived from group-by columns
// or declared up front as fixed tag lists.
package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"sketchlog/internal/core"
)

// Tag is one key/value pair of a segment.
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Segment is a sorted list of tags identifying one data segment.
type Segment []Tag

// Mode selects how rows map to segments.
type Mode int

const (
	// ModeNone disables segmentation.
	ModeNone Mode = iota
	// ModeKeys groups rows by the values of the configured key columns.
	ModeKeys
	// ModeFixed profiles only rows matching one of the configured tag sets.
	ModeFixed
)

// Spec declares how a logger segments its input.
type Spec struct {
	mode  Mode
	keys  []string
	fixed []Segment
}

// ParseSpec validates and builds a segmentation spec. Exactly one of keys or
// fixed may be set; passing both, or a fixed segment with duplicate keys, is
// an error. Empty inputs produce the disabled spec.
func ParseSpec(keys []string, fixed [][]Tag) (Spec, error) {
	if len(keys) > 0 && len(fixed) > 0 {
		return Spec{}, fmt.Errorf("segment spec: cannot combine key and fixed segmentation")
	}

	if len(keys) > 0 {
		seen := make(map[string]bool, len(keys))
		for _, k := range keys {
			if k == "" {
				return Spec{}, fmt.Errorf("segment spec: empty key")
			}
			if seen[k] {
				return Spec{}, fmt.Errorf("segment spec: duplicate key %q", k)
			}
			seen[k] = true
		}
		return Spec{mode: ModeKeys, keys: keys}, nil
	}

	if len(fixed) > 0 {
		segments := make([]Segment, 0, len(fixed))
		for _, tags := range fixed {
			if len(tags) == 0 {
				return Spec{}, fmt.Errorf("segment spec: empty fixed segment")
			}
			seen := make(map[string]bool, len(tags))
			for _, t := range tags {
				if t.Key == "" {
					return Spec{}, fmt.Errorf("segment spec: fixed segment with empty key")
				}
				if seen[t.Key] {
					return Spec{}, fmt.Errorf("segment spec: duplicate key %q in fixed segment", t.Key)
				}
				seen[t.Key] = true
			}
			segments = append(segments, Normalize(tags))
		}
		return Spec{mode: ModeFixed, fixed: segments}, nil
	}

	return Spec{}, nil
}

// Mode returns the segmentation mode.
func (s Spec) Mode() Mode { return s.mode }

// Enabled reports whether any segmentation is configured.
func (s Spec) Enabled() bool { return s.mode != ModeNone }

// Keys returns the group-by key columns (ModeKeys).
func (s Spec) Keys() []string { return s.keys }

// Fixed returns the declared segments (ModeFixed).
func (s Spec) Fixed() []Segment { return s.fixed }

// Normalize sorts tags by key, returning a canonical Segment.
func Normalize(tags []Tag) Segment {
	seg := make(Segment, len(tags))
	copy(seg, tags)
	sort.Slice(seg, func(i, j int) bool { return seg[i].Key < seg[j].Key })
	return seg
}

// FromRow derives the segment a row belongs to under key segmentation.
// Any missing key column means the row has no segment.
func (s Spec) FromRow(row map[string]interface{}) (Segment, bool) {
	if s.mode != ModeKeys {
		return nil, false
	}
	tags := make([]Tag, 0, len(s.keys))
	for _, k := range s.keys {
		v, ok := row[k]
		if !ok {
			return nil, false
		}
		tags = append(tags, Tag{Key: k, Value: core.CanonicalString(v)})
	}
	return Normalize(tags), true
}

// MatchFixed returns the configured fixed segments the row belongs to.
// Fixed segments may overlap, so a row can match more than one.
func (s Spec) MatchFixed(row map[string]interface{}) []Segment {
	if s.mode != ModeFixed {
		return nil
	}
	var matched []Segment
	for _, seg := range s.fixed {
		ok := true
		for _, t := range seg {
			v, present := row[t.Key]
			if !present || core.CanonicalString(v) != t.Value {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, seg)
		}
	}
	return matched
}

// Hash returns a stable hex digest of the segment: sha256 over the canonical
// JSON of the sorted tag list.
func Hash(seg Segment) string {
	canonical := Normalize(seg)
	data, err := json.Marshal(canonical)
	if err != nil {
		// Tag is a plain string struct; marshaling cannot fail in practice.
		data = []byte(fmt.Sprintf("%v", canonical))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON renders the segment as its canonical JSON tag list, the form
// stored in the profile's "segment" tag.
func CanonicalJSON(seg Segment) string {
	data, err := json.Marshal(Normalize(seg))
	if err != nil {
		return fmt.Sprintf("%v", seg)
	}
	return string(data)
}
