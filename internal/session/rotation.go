package session

import (
	"fmt"
	"time"
)

// ValidRotationUnits lists the accepted rotation units.
var ValidRotationUnits = []string{"s", "m", "h", "d"}

// Schedule is a wall-clock profile rotation schedule: a unit times a
// multiplier. The zero Schedule means rotation is disabled.
type Schedule struct {
	unit     string
	interval time.Duration
	layout   string
}

// ParseSchedule builds a rotation schedule from a unit ("s", "m", "h", "d")
// and a multiplier (values < 1 default to 1). An empty unit disables
// rotation.
func ParseSchedule(unit string, multiplier int) (Schedule, error) {
	if unit == "" {
		return Schedule{}, nil
	}
	if multiplier < 1 {
		multiplier = 1
	}

	var base time.Duration
	var layout string
	switch unit {
	case "s":
		base = time.Second
		layout = "2006-01-02_15-04-05"
	case "m":
		base = time.Minute
		layout = "2006-01-02_15-04"
	case "h":
		base = time.Hour
		layout = "2006-01-02_15"
	case "d":
		base = 24 * time.Hour
		layout = "2006-01-02"
	default:
		return Schedule{}, fmt.Errorf("invalid choice of rotation unit %q, valid choices are %v", unit, ValidRotationUnits)
	}

	return Schedule{
		unit:     unit,
		interval: base * time.Duration(multiplier),
		layout:   layout,
	}, nil
}

// Enabled reports whether rotation is configured.
func (s Schedule) Enabled() bool { return s.interval > 0 }

// Interval returns the rotation period.
func (s Schedule) Interval() time.Duration { return s.interval }

// Suffix renders the filename suffix for the rotation window starting at
// windowStart, e.g. ".2024-05-01_13-30".
func (s Schedule) Suffix(windowStart time.Time) string {
	return "." + windowStart.Format(s.layout)
}

// WindowStart truncates the window timestamp to the suffix granularity so
// the stamped dataset timestamp matches the rendered suffix.
func (s Schedule) WindowStart(t time.Time) time.Time {
	parsed, err := time.ParseInLocation(s.layout, t.Format(s.layout), t.Location())
	if err != nil {
		return t
	}
	return parsed
}
