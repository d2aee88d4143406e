// Package dataset reads tabular inputs into the row maps the profiling core
// consumes. Only CSV is supported; cells are typed by the same inference
// rules the column trackers use.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVOptions configures CSV ingestion. The zero value reads standard
// comma-separated files with "" and "null" as null tokens.
type CSVOptions struct {
	Comma      rune     // field delimiter; ',' when zero
	NullTokens []string // cell values treated as null (case-insensitive)
}

// CSVReader streams typed rows out of a CSV document. The first record is
// the header and names the columns.
type CSVReader struct {
	r       *csv.Reader
	header  []string
	nulls   map[string]bool
	rowNum  int
	started bool
}

// NewCSVReader wraps an io.Reader producing CSV data.
func NewCSVReader(r io.Reader, opts CSVOptions) *CSVReader {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = 0 // enforce rectangular input

	nulls := map[string]bool{"": true, "null": true}
	for _, tok := range opts.NullTokens {
		nulls[strings.ToLower(tok)] = true
	}

	return &CSVReader{r: cr, nulls: nulls}
}

// OpenCSV opens a CSV file for streaming.
func OpenCSV(path string, opts CSVOptions) (*CSVReader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	return NewCSVReader(f, opts), f.Close, nil
}

// Header returns the column names. It reads the header record on first use.
func (c *CSVReader) Header() ([]string, error) {
	if err := c.start(); err != nil {
		return nil, err
	}
	return c.header, nil
}

func (c *CSVReader) start() error {
	if c.started {
		return nil
	}
	record, err := c.r.Read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("csv: missing header row")
		}
		return fmt.Errorf("csv: read header: %w", err)
	}
	header := make([]string, len(record))
	for i, h := range record {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return fmt.Errorf("csv: empty column name at position %d", i+1)
		}
	}
	c.header = header
	c.started = true
	return nil
}

// Next returns the next typed row, or io.EOF when the input is exhausted.
func (c *CSVReader) Next() (map[string]interface{}, error) {
	if err := c.start(); err != nil {
		return nil, err
	}

	record, err := c.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("csv: row %d: %w", c.rowNum+1, err)
	}
	c.rowNum++

	row := make(map[string]interface{}, len(c.header))
	for i, cell := range record {
		row[c.header[i]] = c.typeCell(cell)
	}
	return row, nil
}

// ReadAll streams every row through fn, stopping on the first error.
func (c *CSVReader) ReadAll(fn func(row map[string]interface{}) error) error {
	for {
		row, err := c.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("csv: row %d: %w", c.rowNum, err)
		}
	}
}

// Rows returns how many data rows have been read so far.
func (c *CSVReader) Rows() int { return c.rowNum }

// typeCell converts one CSV cell into a typed value: null tokens become nil,
// integers, floats, and booleans are parsed, everything else stays a string.
func (c *CSVReader) typeCell(cell string) interface{} {
	trimmed := strings.TrimSpace(cell)
	if c.nulls[strings.ToLower(trimmed)] {
		return nil
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}
