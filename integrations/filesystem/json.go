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

package integrations

import (
	"bufio"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/arrowarc/weatherarc/arrowutils"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// jsonRow is one line of the JSON lines output. Missing values are null.
type jsonRow struct {
	Timestamp     string   `json:"timestamp"`
	City          string   `json:"city"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Pressure      *float64 `json:"pressure"`
	WindSpeed     *float64 `json:"wind_speed"`
	WindDirection *float64 `json:"wind_direction"`
}

func newJSONRow(o weather.Observation) jsonRow {
	value := func(f weather.Field) *float64 {
		if !o.Has(f) {
			return nil
		}
		v := o.Get(f)
		return &v
	}
	return jsonRow{
		Timestamp:     o.Timestamp.Format(weather.OutputTimestampLayout),
		City:          o.City,
		Temperature:   value(weather.Temperature),
		Humidity:      value(weather.Humidity),
		Pressure:      value(weather.Pressure),
		WindSpeed:     value(weather.WindSpeed),
		WindDirection: value(weather.WindDirection),
	}
}

// JSONWriter writes observation records as JSON lines, one object per row.
type JSONWriter struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewJSONWriter creates filePath for JSON lines output.
func NewJSONWriter(filePath string) (*JSONWriter, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &JSONWriter{file: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write encodes every row of record. The record must carry the observation schema.
func (w *JSONWriter) Write(record arrow.Record) error {
	ds, err := arrowutils.RecordToDataset(record)
	if err != nil {
		return fmt.Errorf("failed to write record to JSON: %w", err)
	}
	for _, o := range ds {
		if err := w.enc.Encode(newJSONRow(o)); err != nil {
			return fmt.Errorf("failed to encode JSON row: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *JSONWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush JSON file: %w", err)
	}
	return w.file.Close()
}
