package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sketchlog/internal/config"
	"sketchlog/internal/core"
	"sketchlog/internal/logging"
	"sketchlog/internal/segment"
	"sketchlog/internal/writer"
)

// Session owns the shared profiling configuration and hands out named
// Loggers. All loggers of a session share its writers, its ID, and its
// project/pipeline tags.
type Session struct {
	mu sync.Mutex

	id        string
	timestamp time.Time
	cfg       *config.Config
	writers   []writer.Writer

	loggers map[string]*Logger
	active  bool
}

// NewSession builds a session from config, constructing its writers.
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writers, err := writer.FromConfig(cfg.Writers, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		id:        uuid.NewString(),
		timestamp: time.Now().UTC(),
		cfg:       cfg,
		writers:   writers,
		loggers:   make(map[string]*Logger),
		active:    true,
	}
	logging.Session("Session %s created (project=%s, pipeline=%s, writers=%d)",
		s.id, cfg.Project, cfg.Pipeline, len(writers))
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Timestamp returns the session creation time.
func (s *Session) Timestamp() time.Time { return s.timestamp }

// IsActive reports whether the session is open.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Logger returns the logger for a dataset name, creating it on first use.
// Extra options apply only when the logger is created.
func (s *Session) Logger(name string, opts ...LoggerOption) (*Logger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, fmt.Errorf("session %s is closed", s.id)
	}
	if l, ok := s.loggers[name]; ok {
		return l, nil
	}

	spec, err := segment.ParseSpec(s.cfg.Session.SegmentKeys, fixedTags(s.cfg.Session.FixedSegments))
	if err != nil {
		return nil, err
	}

	base := []LoggerOption{
		WithWriters(s.writers...),
		WithCacheSize(s.cfg.Session.CacheSize),
		WithSketches(s.cfg.Session.Sketches),
		WithSegments(spec),
		WithProfileFullDataset(s.cfg.Session.ProfileFullDataset),
		WithLoggerTags(map[string]string{
			"project":  s.cfg.Project,
			"pipeline": s.cfg.Pipeline,
		}),
	}
	if r := s.cfg.Session.Rotation; r.Enabled() {
		base = append(base, WithRotation(r.Unit, r.Interval))
	}
	base = append(base, opts...)

	l, err := NewLogger(name, s.id, s.timestamp, base...)
	if err != nil {
		return nil, err
	}
	if s.cfg.Session.Rotation.Enabled() && s.cfg.Session.Rotation.Background {
		l.startWorker()
	}

	s.loggers[name] = l
	return l, nil
}

func fixedTags(fixed [][]segment.Tag) [][]segment.Tag {
	if len(fixed) == 0 {
		return nil
	}
	return fixed
}

// Loggers returns the currently open logger names.
func (s *Session) Loggers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.loggers))
	for n := range s.loggers {
		names = append(names, n)
	}
	return names
}

// Close closes every logger (flushing final profiles), then the writers.
// The returned map holds each dataset's final full profile, when one exists.
func (s *Session) Close() (map[string]*core.DatasetProfile, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		logging.Get(logging.CategorySession).Warn("Attempting to close a closed session %s", s.id)
		return nil, nil
	}
	s.active = false
	loggers := s.loggers
	s.loggers = make(map[string]*Logger)
	writers := s.writers
	s.mu.Unlock()

	profiles := make(map[string]*core.DatasetProfile, len(loggers))
	var firstErr error
	for name, l := range loggers {
		p, err := l.Close()
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close logger %q: %w", name, err)
		}
		if p != nil {
			profiles[name] = p
		}
	}

	for _, w := range writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer: %w", err)
		}
	}

	logging.Session("Session %s closed (%d loggers flushed)", s.id, len(loggers))
	return profiles, firstErr
}
