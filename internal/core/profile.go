// Package core implements streaming dataset profiles: per-column counters,
// inferred-type histograms, numeric summaries, approximate quantiles,
// frequent items, and cardinality estimates. Profiles are mergeable and
// serialize to JSON with full sketch state.
package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unsafe"
)

// DatasetProfile aggregates column profiles for one dataset over one
// profiling window. It is safe for concurrent tracking.
type DatasetProfile struct {
	mu sync.Mutex

	name             string
	sessionID        string
	sessionTimestamp time.Time
	datasetTimestamp time.Time
	tags             map[string]string
	metadata         map[string]string
	sketches         SketchConfig

	columns  map[string]*ColumnProfile
	rowCount int64
}

// ProfileOption customizes a new DatasetProfile.
type ProfileOption func(*DatasetProfile)

// WithTags sets aggregation tags on the profile.
func WithTags(tags map[string]string) ProfileOption {
	return func(p *DatasetProfile) {
		for k, v := range tags {
			p.tags[k] = v
		}
	}
}

// WithMetadata attaches free-form metadata to the profile.
func WithMetadata(md map[string]string) ProfileOption {
	return func(p *DatasetProfile) {
		for k, v := range md {
			p.metadata[k] = v
		}
	}
}

// WithSessionID stamps the owning session's ID on the profile.
func WithSessionID(id string) ProfileOption {
	return func(p *DatasetProfile) { p.sessionID = id }
}

// WithTimestamps sets the session and dataset timestamps.
func WithTimestamps(session, dataset time.Time) ProfileOption {
	return func(p *DatasetProfile) {
		if !session.IsZero() {
			p.sessionTimestamp = session
		}
		if !dataset.IsZero() {
			p.datasetTimestamp = dataset
		}
	}
}

// WithSketchConfig sizes the per-column sketches.
func WithSketchConfig(cfg SketchConfig) ProfileOption {
	return func(p *DatasetProfile) { p.sketches = cfg }
}

// NewDatasetProfile creates an empty profile for the named dataset.
func NewDatasetProfile(name string, opts ...ProfileOption) *DatasetProfile {
	now := time.Now().UTC()
	p := &DatasetProfile{
		name:             name,
		sessionTimestamp: now,
		datasetTimestamp: now,
		tags:             make(map[string]string),
		metadata:         make(map[string]string),
		columns:          make(map[string]*ColumnProfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the dataset name.
func (p *DatasetProfile) Name() string { return p.name }

// SessionID returns the owning session's ID.
func (p *DatasetProfile) SessionID() string { return p.sessionID }

// Tags returns a copy of the profile's tags.
func (p *DatasetProfile) Tags() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		out[k] = v
	}
	return out
}

// DatasetTimestamp returns the timestamp the profile represents.
func (p *DatasetProfile) DatasetTimestamp() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.datasetTimestamp
}

// SetDatasetTimestamp restamps the profile, e.g. to the start of a rotation
// window before flushing.
func (p *DatasetProfile) SetDatasetTimestamp(ts time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datasetTimestamp = ts
}

// SessionTimestamp returns the owning session's creation time.
func (p *DatasetProfile) SessionTimestamp() time.Time { return p.sessionTimestamp }

// RowCount returns the number of rows tracked via TrackRow.
func (p *DatasetProfile) RowCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rowCount
}

// TrackDatum tracks a single column value.
func (p *DatasetProfile) TrackDatum(column string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.column(column).Track(value)
}

// TrackRow tracks one row of column->value pairs and bumps the row counter.
func (p *DatasetProfile) TrackRow(row map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rowCount++
	for col, v := range row {
		p.column(col).Track(v)
	}
}

// column returns the named column profile, creating it on first use.
// Caller holds p.mu.
func (p *DatasetProfile) column(name string) *ColumnProfile {
	c, ok := p.columns[name]
	if !ok {
		c = NewColumnProfile(name, p.sketches)
		p.columns[name] = c
	}
	return c
}

// ColumnNames returns the tracked column names (unsorted).
func (p *DatasetProfile) ColumnNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.columns))
	for n := range p.columns {
		names = append(names, n)
	}
	return names
}

// Merge folds another profile into this one. The profiles must describe the
// same dataset: equal names and equal tag sets. The earlier dataset
// timestamp wins.
func (p *DatasetProfile) Merge(other *DatasetProfile) error {
	if other == nil || other == p {
		return nil
	}

	// Lock both profiles in address order so concurrent a.Merge(b) and
	// b.Merge(a) cannot deadlock.
	first, second := p, other
	if uintptr(unsafe.Pointer(second)) < uintptr(unsafe.Pointer(first)) {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if p.name != other.name {
		return fmt.Errorf("cannot merge profiles of different datasets: %q vs %q", p.name, other.name)
	}
	if !tagsEqual(p.tags, other.tags) {
		return fmt.Errorf("cannot merge profiles with different tags for dataset %q", p.name)
	}

	if other.datasetTimestamp.Before(p.datasetTimestamp) {
		p.datasetTimestamp = other.datasetTimestamp
	}
	p.rowCount += other.rowCount

	for name, col := range other.columns {
		if mine, ok := p.columns[name]; ok {
			mine.Merge(col)
		} else {
			fresh := NewColumnProfile(name, p.sketches)
			fresh.Merge(col)
			p.columns[name] = fresh
		}
	}
	return nil
}

func tagsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Summary flattens the profile for reporting and storage.
func (p *DatasetProfile) Summary() DatasetSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := DatasetSummary{
		Name:             p.name,
		SessionID:        p.sessionID,
		SessionTimestamp: p.sessionTimestamp,
		DatasetTimestamp: p.datasetTimestamp,
		RowCount:         p.rowCount,
		Columns:          make(map[string]ColumnSummary, len(p.columns)),
	}
	if len(p.tags) > 0 {
		s.Tags = make(map[string]string, len(p.tags))
		for k, v := range p.tags {
			s.Tags[k] = v
		}
	}
	if len(p.metadata) > 0 {
		s.Metadata = make(map[string]string, len(p.metadata))
		for k, v := range p.metadata {
			s.Metadata[k] = v
		}
	}
	for name, col := range p.columns {
		s.Columns[name] = col.Summary()
	}
	return s
}

type datasetProfileState struct {
	Name             string                    `json:"name"`
	SessionID        string                    `json:"session_id"`
	SessionTimestamp time.Time                 `json:"session_timestamp"`
	DatasetTimestamp time.Time                 `json:"dataset_timestamp"`
	Tags             map[string]string         `json:"tags,omitempty"`
	Metadata         map[string]string         `json:"metadata,omitempty"`
	Sketches         SketchConfig              `json:"sketches"`
	RowCount         int64                     `json:"row_count"`
	Columns          map[string]*ColumnProfile `json:"columns"`
}

// MarshalJSON serializes the profile with full sketch state so it stays
// mergeable after a round-trip through disk.
func (p *DatasetProfile) MarshalJSON() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Marshal(datasetProfileState{
		Name:             p.name,
		SessionID:        p.sessionID,
		SessionTimestamp: p.sessionTimestamp,
		DatasetTimestamp: p.datasetTimestamp,
		Tags:             p.tags,
		Metadata:         p.metadata,
		Sketches:         p.sketches,
		RowCount:         p.rowCount,
		Columns:          p.columns,
	})
}

// UnmarshalJSON restores a serialized profile.
func (p *DatasetProfile) UnmarshalJSON(data []byte) error {
	var st datasetProfileState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	p.name = st.Name
	p.sessionID = st.SessionID
	p.sessionTimestamp = st.SessionTimestamp
	p.datasetTimestamp = st.DatasetTimestamp
	p.tags = st.Tags
	if p.tags == nil {
		p.tags = make(map[string]string)
	}
	p.metadata = st.Metadata
	if p.metadata == nil {
		p.metadata = make(map[string]string)
	}
	p.sketches = st.Sketches
	p.rowCount = st.RowCount
	p.columns = st.Columns
	if p.columns == nil {
		p.columns = make(map[string]*ColumnProfile)
	}
	return nil
}
