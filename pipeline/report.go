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

package pipeline

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/arrowarc/weatherarc/pkg/weather"
)

// Report describes one run. Inspect fills only the input side.
type Report struct {
	RunID       string        `json:"run_id"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    string        `json:"total_duration"`
	Throughput  float64       `json:"throughput_records_per_second"`
	Stages      []StageTiming `json:"stages"`
	InputDir    string        `json:"input_dir"`
	Output      string        `json:"output,omitempty"`
	Format      string        `json:"format,omitempty"`

	Cities         []string `json:"cities"`
	SkippedCities  []string `json:"skipped_cities"`
	UnlistedCities []string `json:"unlisted_cities,omitempty"`
	EmptyCities    []string `json:"empty_cities,omitempty"`

	InputRows  int `json:"input_rows"`
	OutputRows int `json:"output_rows"`

	Before    []weather.Summary   `json:"before"`
	After     []weather.Summary   `json:"after,omitempty"`
	CityStats []weather.CityStats `json:"city_stats,omitempty"`

	Fingerprint string `json:"fingerprint,omitempty"`
}

func (r *Report) finish(m *Metrics) {
	m.UpdateMetrics()
	m.Lock()
	defer m.Unlock()
	r.StartTime = m.StartTime
	r.EndTime = m.EndTime
	r.Duration = m.TotalDuration.String()
	r.Throughput = m.Throughput
	r.Stages = append([]StageTiming(nil), m.Stages...)
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() (string, error) {
	return PrettyPrint(r)
}

// PrettyPrint marshals the provided value into a pretty-printed JSON string.
func PrettyPrint(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("json: failed to pretty print: %w", err)
	}
	return buf.String(), nil
}
