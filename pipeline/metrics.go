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
	"sync"
	"time"
)

// StageTiming is how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Metrics stores pipeline processing metrics
type Metrics struct {
	sync.Mutex
	RecordsIn     int
	RecordsOut    int
	StartTime     time.Time
	EndTime       time.Time
	TotalDuration time.Duration
	Throughput    float64
	Stages        []StageTiming
}

func newMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// Stage starts timing a stage. The returned func stops it.
func (m *Metrics) Stage(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		m.Lock()
		m.Stages = append(m.Stages, StageTiming{Stage: name, Duration: d})
		m.Unlock()
		return d
	}
}

// UpdateMetrics sets the end time and derives the total duration and the
// input throughput in records per second.
func (m *Metrics) UpdateMetrics() {
	m.Lock()
	defer m.Unlock()

	m.EndTime = time.Now()
	m.TotalDuration = m.EndTime.Sub(m.StartTime)

	if m.TotalDuration > 0 {
		m.Throughput = float64(m.RecordsIn) / m.TotalDuration.Seconds()
	} else {
		m.Throughput = 0
	}
}
