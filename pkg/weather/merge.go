// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package weather

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultCityCount is the number of cities taken from the temperature table
// when no selection is given.
const DefaultCityCount = 5

// WideTable holds one measured field for many cities: a shared timestamp
// column and one value column per city. Missing values are NaN.
type WideTable struct {
	Name       string
	Timestamps []string
	Columns    []string
	Values     map[string][]float64
}

// NewWideTable returns an empty table named name.
func NewWideTable(name string) *WideTable {
	return &WideTable{Name: name, Values: make(map[string][]float64)}
}

// AddColumn appends a city column. Adding an existing city replaces its values.
func (t *WideTable) AddColumn(city string, values []float64) {
	if _, ok := t.Values[city]; !ok {
		t.Columns = append(t.Columns, city)
	}
	t.Values[city] = values
}

// Has reports whether the table carries a column for city.
func (t *WideTable) Has(city string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Values[city]
	return ok
}

// Len returns the number of rows.
func (t *WideTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Timestamps)
}

// value returns the cell at row for city, NaN past the end of a short column.
func (t *WideTable) value(city string, row int) float64 {
	col := t.Values[city]
	if row >= len(col) {
		return math.NaN()
	}
	return col[row]
}

// Tables groups the five source tables, one per Field.
type Tables [NumFields]*WideTable

// MergeOptions controls city selection and alignment checks.
type MergeOptions struct {
	// Cities is the requested selection. Empty selects the first
	// DefaultCityCount value columns of the temperature table.
	Cities []string
	// SkipAlignmentCheck zips the tables by row position without verifying
	// that row counts and timestamps agree.
	SkipAlignmentCheck bool
}

// MergeResult is the unified dataset along with the selection outcome.
type MergeResult struct {
	Dataset  Dataset
	Included []string
	Skipped  []string
}

// Merger reshapes wide tables into the long-form dataset.
type Merger struct {
	logger log.Logger
	opts   MergeOptions
}

// NewMerger creates a Merger. A nil logger discards diagnostics.
func NewMerger(logger log.Logger, opts MergeOptions) *Merger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Merger{logger: log.With(logger, "component", "merger"), opts: opts}
}

// Merge zips the selected city columns of every table into observations,
// sorted by city then timestamp.
func (m *Merger) Merge(tables Tables) (*MergeResult, error) {
	for _, f := range Fields {
		if tables[f] == nil {
			return nil, fmt.Errorf("%w: %s table", ErrInputNotFound, f)
		}
	}
	temp := tables[Temperature]

	timestamps, err := ParseTimestamps(temp.Name, temp.Timestamps)
	if err != nil {
		return nil, err
	}

	if !m.opts.SkipAlignmentCheck {
		if err := checkAlignment(tables); err != nil {
			return nil, err
		}
	}

	requested := m.opts.Cities
	if len(requested) == 0 {
		requested = DefaultCities(temp, DefaultCityCount)
	}
	level.Info(m.logger).Log("msg", "selected cities", "cities", fmt.Sprint(requested))

	res := &MergeResult{}
	seen := make(map[string]struct{}, len(requested))
	for _, city := range requested {
		if _, dup := seen[city]; dup {
			continue
		}
		seen[city] = struct{}{}

		if missing := missingFrom(tables, city); missing != "" {
			level.Warn(m.logger).Log("msg", "city not found, skipped", "city", city, "table", missing, "err", ErrUnknownCity)
			res.Skipped = append(res.Skipped, city)
			continue
		}

		for row, ts := range timestamps {
			o := Observation{City: city, Timestamp: ts}
			for _, f := range Fields {
				o.Values[f] = tables[f].value(city, row)
			}
			res.Dataset = append(res.Dataset, o)
		}
		res.Included = append(res.Included, city)
		level.Debug(m.logger).Log("msg", "merged city", "city", city, "rows", len(timestamps))
	}

	res.Dataset.Sort()
	level.Info(m.logger).Log("msg", "unified dataset created", "rows", len(res.Dataset), "cities", len(res.Included), "skipped", len(res.Skipped))
	return res, nil
}

// DefaultCities returns the first n value columns of t.
func DefaultCities(t *WideTable, n int) []string {
	if len(t.Columns) < n {
		n = len(t.Columns)
	}
	out := make([]string, n)
	copy(out, t.Columns[:n])
	return out
}

// missingFrom returns the name of the first table lacking city, or "".
func missingFrom(tables Tables, city string) string {
	for _, f := range Fields {
		if !tables[f].Has(city) {
			return tables[f].Name
		}
	}
	return ""
}

// checkAlignment verifies every table shares the temperature table's row
// count and raw timestamps.
func checkAlignment(tables Tables) error {
	ref := tables[Temperature]
	for _, f := range Fields[1:] {
		t := tables[f]
		if t.Len() != ref.Len() {
			return &MisalignedError{Table: t.Name, Row: -1, Want: strconv.Itoa(ref.Len()), Got: strconv.Itoa(t.Len())}
		}
		for i, ts := range ref.Timestamps {
			if t.Timestamps[i] != ts {
				return &MisalignedError{Table: t.Name, Row: i, Want: ts, Got: t.Timestamps[i]}
			}
		}
	}
	return nil
}
