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

// Package weather merges per-field wide weather tables into a long-form
// dataset keyed by (city, timestamp) and cleans it city by city.
package weather

import (
	"math"
	"sort"
	"time"
)

// Field identifies one measured quantity of an Observation.
type Field int

const (
	Temperature Field = iota
	Humidity
	Pressure
	WindSpeed
	WindDirection

	// NumFields is the number of measured fields carried by an Observation.
	NumFields = 5
)

// Fields lists every measured field in column order.
var Fields = [NumFields]Field{Temperature, Humidity, Pressure, WindSpeed, WindDirection}

// OutlierFields lists the fields checked by the IQR filter, in the order the
// checks are applied. Wind direction is circular and is never checked.
var OutlierFields = []Field{Temperature, Humidity, Pressure, WindSpeed}

var fieldNames = [NumFields]string{"temperature", "humidity", "pressure", "wind_speed", "wind_direction"}

// String returns the column name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField returns the Field named by s.
func ParseField(s string) (Field, bool) {
	for i, name := range fieldNames {
		if name == s {
			return Field(i), true
		}
	}
	return 0, false
}

// Observation is one row of the long-form dataset. Missing values are NaN.
type Observation struct {
	City      string
	Timestamp time.Time
	Values    [NumFields]float64
}

// NewObservation returns an Observation with every field missing.
func NewObservation(city string, ts time.Time) Observation {
	o := Observation{City: city, Timestamp: ts}
	for i := range o.Values {
		o.Values[i] = math.NaN()
	}
	return o
}

// Get returns the value of f, NaN when missing.
func (o Observation) Get(f Field) float64 {
	return o.Values[f]
}

// Has reports whether f carries a value.
func (o Observation) Has(f Field) bool {
	return !math.IsNaN(o.Values[f])
}

// Present returns the number of non-missing fields.
func (o Observation) Present() int {
	n := 0
	for _, v := range o.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Dataset is an ordered sequence of observations.
type Dataset []Observation

// Sort orders the dataset by city, then timestamp. Equal keys keep their
// relative order.
func (d Dataset) Sort() {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].City != d[j].City {
			return d[i].City < d[j].City
		}
		return d[i].Timestamp.Before(d[j].Timestamp)
	})
}

// Cities returns the distinct cities of the dataset in first-seen order.
func (d Dataset) Cities() []string {
	seen := make(map[string]struct{})
	var cities []string
	for _, o := range d {
		if _, ok := seen[o.City]; ok {
			continue
		}
		seen[o.City] = struct{}{}
		cities = append(cities, o.City)
	}
	return cities
}

// Partition groups the dataset by city. Records keep their relative order
// within each partition.
func (d Dataset) Partition() map[string][]Observation {
	parts := make(map[string][]Observation)
	for _, o := range d {
		parts[o.City] = append(parts[o.City], o)
	}
	return parts
}

// City returns the records of one city in dataset order.
func (d Dataset) City(city string) []Observation {
	var out []Observation
	for _, o := range d {
		if o.City == city {
			out = append(out, o)
		}
	}
	return out
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}
