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

import "math"

// FieldSummary describes one field over a set of records. Min and Max are
// nil when the field has no value.
type FieldSummary struct {
	Missing int      `json:"missing"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Summary describes a set of records field by field.
type Summary struct {
	City   string                  `json:"city,omitempty"`
	Rows   int                     `json:"rows"`
	Fields map[string]FieldSummary `json:"fields"`
}

// Summarize describes the whole dataset.
func Summarize(records []Observation) Summary {
	s := Summary{Rows: len(records), Fields: make(map[string]FieldSummary, NumFields)}
	for _, f := range Fields {
		var fs FieldSummary
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, o := range records {
			v := o.Values[f]
			if math.IsNaN(v) {
				fs.Missing++
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if fs.Missing < len(records) {
			fs.Min, fs.Max = &lo, &hi
		}
		s.Fields[f.String()] = fs
	}
	return s
}

// SummarizeByCity describes every city of the dataset in first-seen order.
func SummarizeByCity(ds Dataset) []Summary {
	parts := ds.Partition()
	cities := ds.Cities()
	out := make([]Summary, 0, len(cities))
	for _, city := range cities {
		s := Summarize(parts[city])
		s.City = city
		out = append(out, s)
	}
	return out
}
