package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TimestampColumn is the optional leading column of a flat recording.
const TimestampColumn = "timestamp"

// Table is a flat, column-labelled recording: one row per frame.
type Table struct {
	Labels     []string
	Timestamps []float64
	Rows       [][]float64
}

// OpenCSV reads a flat recording. The header holds the column labels; a
// leading "timestamp" column is split off, otherwise rows are numbered.
func OpenCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a flat recording from r.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	stamped := len(header) > 0 && strings.TrimSpace(header[0]) == TimestampColumn
	t := &Table{}
	if stamped {
		header = header[1:]
	}
	t.Labels = header

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		values := make([]float64, len(rec))
		for i, s := range rec {
			v, err := parseCell(s)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %d: %w", line, i+1, err)
			}
			values[i] = v
		}
		ts := float64(len(t.Rows))
		if stamped {
			ts, values = values[0], values[1:]
		}
		t.Timestamps = append(t.Timestamps, ts)
		t.Rows = append(t.Rows, values)
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("csv has no rows")
	}
	return t, nil
}

func parseCell(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Columns returns the matrix of the selected columns, one row per frame.
func (t *Table) Columns(cols []int) (*mat.Dense, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns selected")
	}
	m := mat.NewDense(len(t.Rows), len(cols), nil)
	for i, row := range t.Rows {
		for j, c := range cols {
			if c >= len(row) {
				return nil, fmt.Errorf("row %d has %d values, column %d requested", i, len(row), c)
			}
			m.Set(i, j, row[c])
		}
	}
	return m, nil
}
