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
	"context"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// CleanOptions holds the thresholds of the cleaning stages.
type CleanOptions struct {
	// MinPresentFields is the least number of non-missing fields a record
	// needs to survive the completeness filter.
	MinPresentFields int
	// LowerQuantile and UpperQuantile locate Q1 and Q3 of the IQR filter.
	LowerQuantile float64
	UpperQuantile float64
	// IQRMultiplier widens the accepted interval on both sides.
	IQRMultiplier float64
}

// DefaultCleanOptions returns the standard thresholds.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		MinPresentFields: 2,
		LowerQuantile:    0.01,
		UpperQuantile:    0.99,
		IQRMultiplier:    1.5,
	}
}

// Validate reports options that cannot produce a meaningful bound.
func (o CleanOptions) Validate() error {
	switch {
	case o.MinPresentFields < 0 || o.MinPresentFields > NumFields:
		return fmt.Errorf("%w: min_present_fields must be within [0, %d], got %d", ErrInvalidConfig, NumFields, o.MinPresentFields)
	case o.LowerQuantile < 0 || o.LowerQuantile > 1:
		return fmt.Errorf("%w: lower_quantile must be within [0, 1], got %v", ErrInvalidConfig, o.LowerQuantile)
	case o.UpperQuantile < 0 || o.UpperQuantile > 1:
		return fmt.Errorf("%w: upper_quantile must be within [0, 1], got %v", ErrInvalidConfig, o.UpperQuantile)
	case o.LowerQuantile >= o.UpperQuantile:
		return fmt.Errorf("%w: lower_quantile %v must be below upper_quantile %v", ErrInvalidConfig, o.LowerQuantile, o.UpperQuantile)
	case o.IQRMultiplier < 0 || math.IsNaN(o.IQRMultiplier):
		return fmt.Errorf("%w: iqr_multiplier must not be negative, got %v", ErrInvalidConfig, o.IQRMultiplier)
	}
	return nil
}

// CityStats counts what each stage did to one city.
type CityStats struct {
	City              string           `json:"city"`
	Input             int              `json:"input"`
	AfterCompleteness int              `json:"after_completeness"`
	Filled            map[string]int   `json:"filled"`
	AfterDedup        int              `json:"after_dedup"`
	Rejected          map[string]int   `json:"rejected"`
	Bounds            map[string]Bound `json:"bounds,omitempty"`
	Output            int              `json:"output"`
}

// Empty reports whether the city lost every record.
func (s CityStats) Empty() bool { return s.Output == 0 }

// CleanResult is the cleaned dataset and per-city stage counts in city order.
type CleanResult struct {
	Dataset Dataset
	Stats   []CityStats
}

// EmptyCities returns the cities that contributed no records.
func (r *CleanResult) EmptyCities() []string {
	var out []string
	for _, s := range r.Stats {
		if s.Empty() {
			out = append(out, s.City)
		}
	}
	return out
}

// Cleaner applies CleanCity to every partition of a dataset.
type Cleaner struct {
	logger log.Logger
	opts   CleanOptions
}

// NewCleaner creates a Cleaner. A nil logger discards diagnostics.
func NewCleaner(logger log.Logger, opts CleanOptions) *Cleaner {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Cleaner{logger: log.With(logger, "component", "cleaner"), opts: opts}
}

// Clean partitions ds by city, cleans each partition and reassembles the
// result sorted by city then timestamp.
func (c *Cleaner) Clean(ctx context.Context, ds Dataset) (*CleanResult, error) {
	if err := c.opts.Validate(); err != nil {
		return nil, err
	}

	cities := ds.Cities()
	parts := ds.Partition()
	cleaned := make([][]Observation, len(cities))
	stats := make([]CityStats, len(cities))

	for i, city := range cities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cleaned[i], stats[i] = CleanCity(city, parts[city], c.opts)
	}

	res := &CleanResult{Stats: stats}
	for i, city := range cities {
		s := stats[i]
		if s.Empty() {
			level.Warn(c.logger).Log("msg", "city has no records after cleaning", "city", city, "err", ErrEmptyPartition)
		} else {
			level.Info(c.logger).Log("msg", "city cleaned", "city", city, "input", s.Input, "complete", s.AfterCompleteness, "deduped", s.AfterDedup, "output", s.Output)
		}
		res.Dataset = append(res.Dataset, cleaned[i]...)
	}
	res.Dataset.Sort()

	level.Info(c.logger).Log("msg", "dataset cleaned", "input", len(ds), "output", len(res.Dataset))
	return res, nil
}

// CleanCity runs the completeness filter, gap fill, deduplication and IQR
// outlier rejection over the records of a single city, in that order. The
// records are expected in timestamp order and are not modified.
func CleanCity(city string, records []Observation, opts CleanOptions) ([]Observation, CityStats) {
	stats := CityStats{
		City:     city,
		Input:    len(records),
		Filled:   make(map[string]int, NumFields),
		Rejected: make(map[string]int, len(OutlierFields)),
	}

	out := keepComplete(records, opts.MinPresentFields)
	stats.AfterCompleteness = len(out)

	for _, f := range Fields {
		stats.Filled[f.String()] = fillGaps(out, f)
	}

	out = dedupe(out)
	stats.AfterDedup = len(out)

	for _, f := range OutlierFields {
		var b Bound
		var rejected int
		out, b, rejected = rejectOutliers(out, f, opts)
		stats.Rejected[f.String()] = rejected
		if !math.IsNaN(b.Lower) && !math.IsNaN(b.Upper) {
			if stats.Bounds == nil {
				stats.Bounds = make(map[string]Bound, len(OutlierFields))
			}
			stats.Bounds[f.String()] = b
		}
	}

	stats.Output = len(out)
	return out, stats
}

// keepComplete copies the records carrying at least min non-missing fields.
func keepComplete(records []Observation, min int) []Observation {
	out := make([]Observation, 0, len(records))
	for _, o := range records {
		if o.Present() >= min {
			out = append(out, o)
		}
	}
	return out
}

// fillGaps interpolates missing values of f in place and returns how many
// cells were filled.
func fillGaps(records []Observation, f Field) int {
	col := make([]float64, len(records))
	for i, o := range records {
		col[i] = o.Values[f]
	}
	n := FillLinear(col)
	for i := range records {
		records[i].Values[f] = col[i]
	}
	return n
}

// FillLinear replaces NaN entries by linear interpolation between the nearest
// known neighbours, treating entries as equally spaced. Leading and trailing
// gaps take the nearest known value. A slice with no known value is left
// untouched. It returns the number of entries filled.
func FillLinear(vals []float64) int {
	filled := 0
	prev := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev < 0:
			for j := 0; j < i; j++ {
				vals[j] = v
				filled++
			}
		case i-prev > 1:
			step := (v - vals[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				vals[j] = vals[prev] + step*float64(j-prev)
				filled++
			}
		}
		prev = i
	}
	if prev < 0 {
		return 0
	}
	for j := prev + 1; j < len(vals); j++ {
		vals[j] = vals[prev]
		filled++
	}
	return filled
}

type instant struct {
	sec  int64
	nsec int
}

// dedupe keeps the first record of every timestamp.
func dedupe(records []Observation) []Observation {
	seen := make(map[instant]struct{}, len(records))
	out := records[:0]
	for _, o := range records {
		key := instant{o.Timestamp.Unix(), o.Timestamp.Nanosecond()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// rejectOutliers drops every record whose value of f falls outside the IQR
// bound computed from records. Missing values are rejected.
func rejectOutliers(records []Observation, f Field, opts CleanOptions) ([]Observation, Bound, int) {
	col := make([]float64, len(records))
	for i, o := range records {
		col[i] = o.Values[f]
	}
	b := IQRBound(col, opts.LowerQuantile, opts.UpperQuantile, opts.IQRMultiplier)

	out := records[:0]
	for _, o := range records {
		if b.Contains(o.Values[f]) {
			out = append(out, o)
		}
	}
	return out, b, len(records) - len(out)
}
