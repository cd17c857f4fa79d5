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

// Package generator provides utilities for generating test data in various formats.
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	integrations "github.com/arrowarc/weatherarc/integrations/filesystem"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// DefaultStart is the first hour of generated tables, matching the start of
// the historical hourly archive.
var DefaultStart = time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)

// DefaultCities are the first columns of the historical archive.
var DefaultCities = []string{"Vancouver", "Portland", "San Francisco", "Seattle", "Los Angeles"}

var knownCities = map[string]weather.CityAttribute{
	"Vancouver":     {City: "Vancouver", Country: "Canada", Latitude: 49.24966, Longitude: -123.119339},
	"Portland":      {City: "Portland", Country: "United States", Latitude: 45.523449, Longitude: -122.676208},
	"San Francisco": {City: "San Francisco", Country: "United States", Latitude: 37.774929, Longitude: -122.419418},
	"Seattle":       {City: "Seattle", Country: "United States", Latitude: 47.606209, Longitude: -122.332069},
	"Los Angeles":   {City: "Los Angeles", Country: "United States", Latitude: 34.052231, Longitude: -118.243683},
	"San Diego":     {City: "San Diego", Country: "United States", Latitude: 32.715328, Longitude: -117.157257},
	"Las Vegas":     {City: "Las Vegas", Country: "United States", Latitude: 36.174969, Longitude: -115.137222},
	"Phoenix":       {City: "Phoenix", Country: "United States", Latitude: 33.44838, Longitude: -112.074043},
	"Denver":        {City: "Denver", Country: "United States", Latitude: 39.739151, Longitude: -104.984703},
	"Montreal":      {City: "Montreal", Country: "Canada", Latitude: 45.508839, Longitude: -73.587807},
}

// Options controls the shape and the defects of generated tables.
type Options struct {
	Cities []string
	Hours  int
	Seed   int64
	Start  time.Time
	// GapRate is the probability of any single cell being left empty.
	GapRate float64
	// DuplicateRate is the probability of an hour being written twice.
	DuplicateRate float64
	// SpikeRate is the probability of a temperature or pressure cell holding
	// an implausible value.
	SpikeRate float64
}

// DefaultOptions returns options for a small archive with a few defects of
// every kind.
func DefaultOptions() Options {
	return Options{
		Cities:        DefaultCities,
		Hours:         24 * 14,
		Seed:          1,
		Start:         DefaultStart,
		GapRate:       0.02,
		DuplicateRate: 0.01,
		SpikeRate:     0.002,
	}
}

// GenerateWideTables writes city_attributes.csv and one wide CSV per field
// into dir.
func GenerateWideTables(dir string, cities []string, hours int, seed int64) error {
	opts := DefaultOptions()
	if len(cities) > 0 {
		opts.Cities = cities
	}
	opts.Hours = hours
	opts.Seed = seed
	return Generate(context.Background(), dir, opts)
}

// Generate writes the tables described by opts into dir.
func Generate(ctx context.Context, dir string, opts Options) error {
	if opts.Hours < 1 {
		return fmt.Errorf("hours must be greater than 0, got %d", opts.Hours)
	}
	if len(opts.Cities) == 0 {
		return fmt.Errorf("at least one city is required")
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultStart
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	mem := memory.NewGoAllocator()

	if err := writeAttributes(ctx, mem, filepath.Join(dir, "city_attributes.csv"), opts.Cities, rng); err != nil {
		return err
	}

	hours := hourRows(opts, rng)
	timestamps := make([]string, len(hours))
	for i, h := range hours {
		timestamps[i] = opts.Start.Add(time.Duration(h) * time.Hour).Format(weather.OutputTimestampLayout)
	}

	base := make(map[string]float64, len(opts.Cities))
	for _, city := range opts.Cities {
		base[city] = 278 + rng.Float64()*14
	}

	for _, f := range weather.Fields {
		columns := make([][]float64, len(opts.Cities))
		for c, city := range opts.Cities {
			values := make([]float64, len(hours))
			gen := newFieldGen(f, base[city], rng)
			cache := make(map[int]float64, opts.Hours)
			for i, h := range hours {
				v, seen := cache[h]
				if !seen {
					v = gen.value(h)
					if rng.Float64() < opts.SpikeRate {
						v = spike(f, v)
					}
					if rng.Float64() < opts.GapRate {
						v = math.NaN()
					}
					cache[h] = v
				}
				values[i] = v
			}
			columns[c] = values
		}
		path := filepath.Join(dir, f.String()+".csv")
		if err := writeWideTable(ctx, mem, path, timestamps, opts.Cities, columns); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// hourRows returns the hour offset of every output row. A duplicated hour is
// written twice in a row with the same values.
func hourRows(opts Options, rng *rand.Rand) []int {
	rows := make([]int, 0, opts.Hours)
	for h := 0; h < opts.Hours; h++ {
		rows = append(rows, h)
		if rng.Float64() < opts.DuplicateRate {
			rows = append(rows, h)
		}
	}
	return rows
}

type fieldGen struct {
	field weather.Field
	base  float64
	rng   *rand.Rand
	phase float64
}

func newFieldGen(f weather.Field, base float64, rng *rand.Rand) *fieldGen {
	return &fieldGen{field: f, base: base, rng: rng, phase: rng.Float64() * 2 * math.Pi}
}

func (g *fieldGen) value(hour int) float64 {
	day := 2 * math.Pi * float64(hour%24-9) / 24
	slow := math.Sin(g.phase + 2*math.Pi*float64(hour)/(24*7))
	switch g.field {
	case weather.Temperature:
		return round(g.base+6*math.Sin(day)+3*slow+g.rng.NormFloat64()*0.5, 3)
	case weather.Humidity:
		return math.Max(5, math.Min(100, math.Round(75-15*math.Sin(day)+10*slow+g.rng.NormFloat64()*3)))
	case weather.Pressure:
		return math.Round(1013 + 8*slow + g.rng.NormFloat64()*1.5)
	case weather.WindSpeed:
		return math.Max(0, math.Round(3+2*slow+g.rng.NormFloat64()))
	case weather.WindDirection:
		return float64(g.rng.Intn(361))
	}
	return math.NaN()
}

func spike(f weather.Field, v float64) float64 {
	switch f {
	case weather.Temperature:
		return v + 60
	case weather.Pressure:
		return v * 2
	case weather.Humidity:
		return v + 300
	case weather.WindSpeed:
		return v + 80
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeWideTable(ctx context.Context, mem memory.Allocator, path string, timestamps, cities []string, columns [][]float64) error {
	fields := []arrow.Field{{Name: "datetime", Type: arrow.BinaryTypes.String}}
	for _, city := range cities {
		fields = append(fields, arrow.Field{Name: city, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.StringBuilder).AppendValues(timestamps, nil)
	for c, values := range columns {
		fb := b.Field(c + 1).(*array.Float64Builder)
		for _, v := range values {
			if math.IsNaN(v) {
				fb.AppendNull()
			} else {
				fb.Append(v)
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	return writeRecord(ctx, path, rec)
}

func writeAttributes(ctx context.Context, mem memory.Allocator, path string, cities []string, rng *rand.Rand) error {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "City", Type: arrow.BinaryTypes.String},
		{Name: "Country", Type: arrow.BinaryTypes.String},
		{Name: "Latitude", Type: arrow.PrimitiveTypes.Float64},
		{Name: "Longitude", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, city := range cities {
		a, ok := knownCities[city]
		if !ok {
			a = weather.CityAttribute{
				City:      city,
				Country:   "Unknown",
				Latitude:  round(rng.Float64()*120-60, 6),
				Longitude: round(rng.Float64()*360-180, 6),
			}
		}
		b.Field(0).(*array.StringBuilder).Append(a.City)
		b.Field(1).(*array.StringBuilder).Append(a.Country)
		b.Field(2).(*array.Float64Builder).Append(a.Latitude)
		b.Field(3).(*array.Float64Builder).Append(a.Longitude)
	}
	rec := b.NewRecord()
	defer rec.Release()

	if err := writeRecord(ctx, path, rec); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeRecord(ctx context.Context, path string, rec arrow.Record) error {
	w, err := integrations.NewCSVRecordWriter(ctx, path, rec.Schema(), ',')
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
