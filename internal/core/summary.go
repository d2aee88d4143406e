package core

import (
	"math"
	"time"
)

// quantileGrid is the fixed set of quantiles reported in summaries.
var quantileGrid = []float64{0, 0.25, 0.5, 0.75, 0.95, 0.99, 1}

var quantileLabels = map[float64]string{
	0:    "min",
	0.25: "q25",
	0.5:  "median",
	0.75: "q75",
	0.95: "q95",
	0.99: "q99",
	1:    "max",
}

// NumberSummary is the flattened numeric summary of a column.
type NumberSummary struct {
	Count  int64   `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// ColumnSummary is the flattened, human-facing view of a ColumnProfile.
type ColumnSummary struct {
	Count          int64              `json:"count"`
	NullCount      int64              `json:"null_count"`
	InferredType   DataType           `json:"inferred_type"`
	TypeCounts     map[DataType]int64 `json:"type_counts"`
	EstUniqueCount float64            `json:"est_unique_count"`
	Numbers        *NumberSummary     `json:"numbers,omitempty"`
	Quantiles      map[string]float64 `json:"quantiles,omitempty"`
	FrequentItems  []ItemCount        `json:"frequent_items,omitempty"`
}

// DatasetSummary is the flattened view of a DatasetProfile.
type DatasetSummary struct {
	Name             string                   `json:"name"`
	SessionID        string                   `json:"session_id"`
	SessionTimestamp time.Time                `json:"session_timestamp"`
	DatasetTimestamp time.Time                `json:"dataset_timestamp"`
	Tags             map[string]string        `json:"tags,omitempty"`
	Metadata         map[string]string        `json:"metadata,omitempty"`
	RowCount         int64                    `json:"row_count"`
	Columns          map[string]ColumnSummary `json:"columns"`
}

// Summary flattens the column trackers into a ColumnSummary. The top 10
// frequent items are included.
func (c *ColumnProfile) Summary() ColumnSummary {
	s := ColumnSummary{
		Count:          c.total,
		NullCount:      c.nulls,
		InferredType:   c.InferredType(),
		TypeCounts:     make(map[DataType]int64, len(c.typeCounts)),
		EstUniqueCount: c.cardinality.Estimate(),
		FrequentItems:  c.frequent.Top(10),
	}
	for t, n := range c.typeCounts {
		s.TypeCounts[t] = n
	}

	if c.numbers.Count() > 0 {
		stddev := c.numbers.StdDev()
		if math.IsNaN(stddev) {
			stddev = 0
		}
		s.Numbers = &NumberSummary{
			Count:  c.numbers.Count(),
			Min:    c.numbers.Min(),
			Max:    c.numbers.Max(),
			Mean:   c.numbers.Mean(),
			StdDev: stddev,
		}
		s.Quantiles = make(map[string]float64, len(quantileGrid))
		for _, q := range quantileGrid {
			s.Quantiles[quantileLabels[q]] = c.sampler.Quantile(q)
		}
	}

	return s
}
