// Package session implements sessions and dataset loggers: the streaming
// front door that routes values, rows, and CSV datasets into dataset
// profiles, splits them across segments, rotates them on a wall-clock
// schedule, and flushes them through the configured writers.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sketchlog/internal/core"
	"sketchlog/internal/dataset"
	"sketchlog/internal/logging"
	"sketchlog/internal/segment"
	"sketchlog/internal/writer"
)

// profileSet is one profiling window: the optional full-dataset profile and
// the per-segment profiles keyed by segment hash.
type profileSet struct {
	full      *core.DatasetProfile
	segmented map[string]*core.DatasetProfile
}

// Logger profiles a named dataset. Values logged into it accumulate in the
// current profile window; Flush writes the window through every writer, and
// a rotation schedule retires windows on wall-clock boundaries.
//
// Logger is safe for concurrent use.
type Logger struct {
	mu sync.Mutex

	name      string
	sessionID string
	sessionTS time.Time
	tags      map[string]string
	metadata  map[string]string
	sketches  core.SketchConfig

	writers   []writer.Writer
	cacheSize int

	segments           segment.Spec
	profileFullDataset bool

	schedule Schedule
	rotateAt time.Time

	current *profileSet
	cache   []*profileSet

	active bool

	workerStop chan struct{}
	workerDone chan struct{}
}

// LoggerOption customizes one Logger.
type LoggerOption func(*Logger) error

// WithDatasetTimestamp stamps the first profile window.
func WithDatasetTimestamp(ts time.Time) LoggerOption {
	return func(l *Logger) error {
		if l.current != nil && !ts.IsZero() {
			l.current.full.SetDatasetTimestamp(ts)
		}
		return nil
	}
}

// WithLoggerTags adds tags to every profile the logger produces.
func WithLoggerTags(tags map[string]string) LoggerOption {
	return func(l *Logger) error {
		for k, v := range tags {
			l.tags[k] = v
		}
		return nil
	}
}

// WithLoggerMetadata attaches metadata to every profile.
func WithLoggerMetadata(md map[string]string) LoggerOption {
	return func(l *Logger) error {
		for k, v := range md {
			l.metadata[k] = v
		}
		return nil
	}
}

// WithSegments sets the segmentation spec.
func WithSegments(spec segment.Spec) LoggerOption {
	return func(l *Logger) error {
		l.segments = spec
		return nil
	}
}

// WithProfileFullDataset keeps the unsegmented profile alongside segments.
func WithProfileFullDataset(keep bool) LoggerOption {
	return func(l *Logger) error {
		l.profileFullDataset = keep
		return nil
	}
}

// WithRotation sets the rotation schedule from a unit and multiplier.
func WithRotation(unit string, multiplier int) LoggerOption {
	return func(l *Logger) error {
		sched, err := ParseSchedule(unit, multiplier)
		if err != nil {
			return err
		}
		l.schedule = sched
		return nil
	}
}

// WithCacheSize bounds how many rotated windows the logger retains.
func WithCacheSize(n int) LoggerOption {
	return func(l *Logger) error {
		if n < 0 {
			return fmt.Errorf("cache size must be >= 0")
		}
		l.cacheSize = n
		return nil
	}
}

// WithSketches sizes the per-column sketches.
func WithSketches(cfg core.SketchConfig) LoggerOption {
	return func(l *Logger) error {
		l.sketches = cfg
		return nil
	}
}

// WithWriters sets the writers the logger flushes through.
func WithWriters(ws ...writer.Writer) LoggerOption {
	return func(l *Logger) error {
		l.writers = ws
		return nil
	}
}

// NewLogger creates an active logger for the named dataset. The sessionID
// and session timestamp normally come from the owning Session.
func NewLogger(name, sessionID string, sessionTS time.Time, opts ...LoggerOption) (*Logger, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name required")
	}
	if sessionTS.IsZero() {
		sessionTS = time.Now().UTC()
	}

	l := &Logger{
		name:      name,
		sessionID: sessionID,
		sessionTS: sessionTS,
		tags:      make(map[string]string),
		metadata:  make(map[string]string),
		cacheSize: 1,
		active:    true,
	}
	l.current = l.newProfileSet(time.Time{})

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	// Rebuild the initial window in case options changed segmentation or
	// sketch sizing after the pre-option set was created.
	ts := l.current.full.DatasetTimestamp()
	l.current = l.newProfileSet(ts)

	if l.schedule.Enabled() {
		l.rotateAt = time.Now().Add(l.schedule.Interval())
	}

	logging.DatasetLogger("Logger created for dataset %q (session %s, rotation=%v, segmented=%v)",
		name, sessionID, l.schedule.Enabled(), l.segments.Enabled())
	return l, nil
}

// newProfileSet builds a fresh profiling window.
func (l *Logger) newProfileSet(datasetTS time.Time) *profileSet {
	set := &profileSet{segmented: make(map[string]*core.DatasetProfile)}
	opts := []core.ProfileOption{
		core.WithSessionID(l.sessionID),
		core.WithTags(l.tags),
		core.WithMetadata(l.metadata),
		core.WithTimestamps(l.sessionTS, datasetTS),
		core.WithSketchConfig(l.sketches),
	}
	// The full-dataset profile always exists; whether it receives data and
	// gets flushed depends on trackFullDataset.
	set.full = core.NewDatasetProfile(l.name, opts...)
	return set
}

// trackFullDataset reports whether the unsegmented profile is maintained.
func (l *Logger) trackFullDataset() bool {
	return !l.segments.Enabled() || l.profileFullDataset
}

// Name returns the dataset name.
func (l *Logger) Name() string { return l.name }

// IsActive reports whether the logger accepts data.
func (l *Logger) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Profile returns the current full-dataset profile, or nil when the logger
// only maintains segmented profiles.
func (l *Logger) Profile() *core.DatasetProfile {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.trackFullDataset() {
		return nil
	}
	return l.current.full
}

// SegmentProfile returns the profile for a segment, or nil if that segment
// has not been seen.
func (l *Logger) SegmentProfile(seg segment.Segment) *core.DatasetProfile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.segmented[segment.Hash(seg)]
}

// SegmentCount returns how many segments the current window tracks.
func (l *Logger) SegmentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.current.segmented)
}

// LogDatum tracks a single named value.
func (l *Logger) LogDatum(name string, value interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.maybeRotateLocked(time.Now())

	if l.trackFullDataset() {
		l.current.full.TrackDatum(name, value)
	}
	if l.segments.Enabled() {
		l.routeRowLocked(map[string]interface{}{name: value}, false)
	}
}

// Log tracks one row of column/value pairs.
func (l *Logger) Log(row map[string]interface{}) {
	if len(row) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.maybeRotateLocked(time.Now())
	l.trackRowLocked(row)
}

// trackRowLocked routes one row into the full and segmented profiles.
// Caller holds l.mu.
func (l *Logger) trackRowLocked(row map[string]interface{}) {
	if l.trackFullDataset() {
		l.current.full.TrackRow(row)
	}
	if l.segments.Enabled() {
		l.routeRowLocked(row, true)
	}
}

// routeRowLocked sends a row to the segment profiles it belongs to. asRow
// selects TrackRow (bumping row counts) over per-datum tracking.
// Caller holds l.mu.
func (l *Logger) routeRowLocked(row map[string]interface{}, asRow bool) {
	var targets []segment.Segment
	switch l.segments.Mode() {
	case segment.ModeKeys:
		if seg, ok := l.segments.FromRow(row); ok {
			targets = []segment.Segment{seg}
		}
	case segment.ModeFixed:
		targets = l.segments.MatchFixed(row)
	}

	for _, seg := range targets {
		p := l.segmentProfileLocked(seg)
		if asRow {
			p.TrackRow(row)
		} else {
			for col, v := range row {
				p.TrackDatum(col, v)
			}
		}
	}
}

// segmentProfileLocked returns (creating if needed) the profile for a
// segment. Caller holds l.mu.
func (l *Logger) segmentProfileLocked(seg segment.Segment) *core.DatasetProfile {
	hash := segment.Hash(seg)
	if p, ok := l.current.segmented[hash]; ok {
		return p
	}

	tags := make(map[string]string, len(l.tags)+1)
	for k, v := range l.tags {
		tags[k] = v
	}
	tags["segment"] = segment.CanonicalJSON(seg)

	p := core.NewDatasetProfile(l.name,
		core.WithSessionID(l.sessionID),
		core.WithTags(tags),
		core.WithMetadata(l.metadata),
		core.WithTimestamps(l.sessionTS, l.current.full.DatasetTimestamp()),
		core.WithSketchConfig(l.sketches),
	)
	l.current.segmented[hash] = p
	logging.DatasetLoggerDebug("New segment profile for %q: %s", l.name, segment.CanonicalJSON(seg))
	return p
}

// CSVOptions configures one LogCSV call.
type CSVOptions struct {
	// Dataset overrides CSV parsing (delimiter, null tokens).
	CSV dataset.CSVOptions
	// SegmentKeys overrides the logger's segmentation for this call.
	SegmentKeys []string
	// FixedSegments overrides the logger's segmentation for this call.
	FixedSegments [][]segment.Tag
	// ProfileFullDataset overrides whether the unsegmented profile is kept.
	ProfileFullDataset *bool
}

// LogCSV streams a CSV document into the profile(s). Per-call segmentation
// overrides replace the logger's spec for this and subsequent data, matching
// the original logger's behavior.
func (l *Logger) LogCSV(r io.Reader, opts CSVOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return fmt.Errorf("logger for %q is closed", l.name)
	}
	l.maybeRotateLocked(time.Now())

	if opts.ProfileFullDataset != nil {
		l.profileFullDataset = *opts.ProfileFullDataset
	}
	if len(opts.SegmentKeys) > 0 || len(opts.FixedSegments) > 0 {
		spec, err := segment.ParseSpec(opts.SegmentKeys, opts.FixedSegments)
		if err != nil {
			return err
		}
		l.segments = spec
	}

	reader := dataset.NewCSVReader(r, opts.CSV)
	err := reader.ReadAll(func(row map[string]interface{}) error {
		l.trackRowLocked(row)
		return nil
	})
	if err != nil {
		return err
	}
	logging.DatasetLogger("Logged %d CSV rows into dataset %q", reader.Rows(), l.name)
	return nil
}

// LogCSVFile streams a CSV file from disk.
func (l *Logger) LogCSVFile(path string, opts CSVOptions) error {
	reader, closeFn, err := dataset.OpenCSV(path, opts.CSV)
	if err != nil {
		return err
	}
	defer closeFn()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return fmt.Errorf("logger for %q is closed", l.name)
	}
	l.maybeRotateLocked(time.Now())

	if opts.ProfileFullDataset != nil {
		l.profileFullDataset = *opts.ProfileFullDataset
	}
	if len(opts.SegmentKeys) > 0 || len(opts.FixedSegments) > 0 {
		spec, err := segment.ParseSpec(opts.SegmentKeys, opts.FixedSegments)
		if err != nil {
			return err
		}
		l.segments = spec
	}

	err = reader.ReadAll(func(row map[string]interface{}) error {
		l.trackRowLocked(row)
		return nil
	})
	if err != nil {
		return err
	}
	logging.DatasetLogger("Logged %d CSV rows into dataset %q from %s", reader.Rows(), l.name, path)
	return nil
}

// Flush synchronously writes the current window through every writer.
func (l *Logger) Flush() error {
	return l.FlushContext(context.Background())
}

// FlushContext is Flush with cancellation.
func (l *Logger) FlushContext(ctx context.Context) error {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		logging.Get(logging.CategoryLogger).Warn("Attempting to flush a closed logger for %q", l.name)
		return nil
	}
	targets := l.flushTargetsLocked(l.current, "")
	l.mu.Unlock()

	return l.flush(ctx, targets)
}

// flushTarget pairs one profile with the filename suffix it flushes under.
type flushTarget struct {
	profile *core.DatasetProfile
	suffix  string
}

// flushTargetsLocked snapshots a window into flush targets so the writers
// can run without the logger lock. The rotation suffix, when present, is
// appended after the segment hash. Caller holds l.mu.
func (l *Logger) flushTargetsLocked(set *profileSet, rotationSuffix string) []flushTarget {
	targets := make([]flushTarget, 0, len(set.segmented)+1)
	if l.trackFullDataset() {
		targets = append(targets, flushTarget{profile: set.full, suffix: rotationSuffix})
	}
	for hash, p := range set.segmented {
		targets = append(targets, flushTarget{profile: p, suffix: "_" + hash + rotationSuffix})
	}
	return targets
}

// flush writes the snapshot through every writer concurrently. Every writer
// is attempted even when another fails; the first error wins.
func (l *Logger) flush(ctx context.Context, targets []flushTarget) error {
	if len(l.writers) == 0 || len(targets) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, w := range l.writers {
		w := w
		g.Go(func() error {
			for _, t := range targets {
				if err := w.Write(ctx, t.profile, t.suffix); err != nil {
					return fmt.Errorf("write profile %q%s: %w", l.name, t.suffix, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// maybeRotateLocked rotates the window when the schedule says it is due.
// Caller holds l.mu.
func (l *Logger) maybeRotateLocked(now time.Time) {
	if !l.schedule.Enabled() || now.Before(l.rotateAt) {
		return
	}
	l.rotateLocked(now)
}

// rotateLocked flushes the expiring window with its time suffix, retires it
// into the bounded cache, and starts a fresh window. Caller holds l.mu.
func (l *Logger) rotateLocked(now time.Time) {
	windowStart := l.schedule.WindowStart(l.rotateAt.Add(-l.schedule.Interval()))
	suffix := l.schedule.Suffix(windowStart)

	// Restamp the expiring profiles to the window they cover.
	if l.trackFullDataset() {
		l.current.full.SetDatasetTimestamp(windowStart)
	}
	for _, p := range l.current.segmented {
		p.SetDatasetTimestamp(windowStart)
	}

	retiring := l.current

	logging.Rotation("Rotating dataset %q window (suffix %s)", l.name, suffix)
	if err := l.flush(context.Background(), l.flushTargetsLocked(retiring, suffix)); err != nil {
		logging.Get(logging.CategoryRotation).Error("Rotation flush failed for %q: %v", l.name, err)
	}

	l.cache = append(l.cache, retiring)
	if l.cacheSize >= 0 && len(l.cache) > l.cacheSize {
		l.cache = l.cache[len(l.cache)-l.cacheSize:]
	}

	l.current = l.newProfileSet(time.Time{})

	// Advance past now even if the flush outlasted the interval.
	l.rotateAt = now.Add(l.schedule.Interval())
	for !l.rotateAt.After(now) {
		l.rotateAt = l.rotateAt.Add(l.schedule.Interval())
	}
}

// RotateNow forces a rotation regardless of the schedule. It is a no-op on
// unrotated or closed loggers.
func (l *Logger) RotateNow() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active || !l.schedule.Enabled() {
		return
	}
	l.rotateLocked(time.Now())
}

// Close flushes and deactivates the logger, returning the last full-dataset
// profile (nil when only segments were tracked, or when already closed).
func (l *Logger) Close() (*core.DatasetProfile, error) {
	l.stopWorker()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		logging.Get(logging.CategoryLogger).Warn("Attempting to close a closed logger for %q", l.name)
		return nil, nil
	}
	l.active = false

	var flushErr error
	var last *core.DatasetProfile

	if l.schedule.Enabled() {
		l.rotateLocked(time.Now())
		// The fresh post-rotation window is empty and is discarded; the
		// just-retired window is the final result.
		if n := len(l.cache); n > 0 {
			last = l.cache[n-1].full
		}
	} else {
		flushErr = l.flush(context.Background(), l.flushTargetsLocked(l.current, ""))
		last = l.current.full
	}

	if !l.trackFullDataset() {
		last = nil
	}

	logging.DatasetLogger("Logger for dataset %q closed", l.name)
	return last, flushErr
}
