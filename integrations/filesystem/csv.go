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
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"

	"github.com/arrowarc/weatherarc/internal/arrio"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// DefaultNullValues are the cell contents read as missing.
var DefaultNullValues = []string{"", "NaN", "nan", "NULL", "NA"}

// CSVReadOptions defines options for reading wide weather tables.
type CSVReadOptions struct {
	TimestampColumn string
	ChunkSize       int
	Delimiter       rune
	NullValues      []string
}

// NewDefaultCSVReadOptions returns the options matching the historical
// hourly-weather archive layout.
func NewDefaultCSVReadOptions() *CSVReadOptions {
	return &CSVReadOptions{
		TimestampColumn: "datetime",
		ChunkSize:       4096,
		Delimiter:       ',',
		NullValues:      DefaultNullValues,
	}
}

// CSVRecordReader implements arrio.Reader for reading records from CSV files.
type CSVRecordReader struct {
	file   *os.File
	reader *csv.Reader
	schema *arrow.Schema
}

// NewCSVRecordReader opens filePath and reads it with schema. The first line
// is treated as a header and skipped.
func NewCSVRecordReader(ctx context.Context, filePath string, schema *arrow.Schema, opts *CSVReadOptions) (*CSVRecordReader, error) {
	if opts == nil {
		opts = NewDefaultCSVReadOptions()
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w: %w", weather.ErrInputNotFound, err)
	}

	reader := csv.NewReader(file, schema,
		csv.WithChunk(opts.ChunkSize),
		csv.WithComma(opts.Delimiter),
		csv.WithHeader(true),
		csv.WithNullReader(false, opts.NullValues...),
	)

	return &CSVRecordReader{file: file, reader: reader, schema: schema}, nil
}

// Read reads the next record from the CSV file.
func (r *CSVRecordReader) Read() (arrow.Record, error) {
	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		return nil, io.EOF
	}

	record := r.reader.Record()
	if record == nil {
		return nil, io.EOF
	}

	record.Retain()
	return record, nil
}

// Schema returns the schema the file is read with.
func (r *CSVRecordReader) Schema() *arrow.Schema {
	return r.schema
}

// Close releases the reader and closes the file.
func (r *CSVRecordReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
	}
	return r.file.Close()
}

// ReadHeader returns the first line of a CSV file.
func ReadHeader(filePath string, delimiter rune) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w: %w", weather.ErrInputNotFound, err)
	}
	defer file.Close()

	reader := stdcsv.NewReader(file)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %s: %w: %w", filePath, weather.ErrInputNotFound, err)
	}
	return header, nil
}

// WideTableSchema types the timestamp column as a string and every other
// column as a nullable float.
func WideTableSchema(header []string, timestampColumn string) (*arrow.Schema, int, error) {
	tsIdx := -1
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		if name == timestampColumn {
			tsIdx = i
			fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
			continue
		}
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
	}
	if tsIdx < 0 {
		return nil, -1, fmt.Errorf("no %q column in header", timestampColumn)
	}
	return arrow.NewSchema(fields, nil), tsIdx, nil
}

// ReadWideTable loads a wide CSV table: one timestamp column plus one value
// column per city.
func ReadWideTable(ctx context.Context, name, filePath string, opts *CSVReadOptions) (*weather.WideTable, error) {
	if opts == nil {
		opts = NewDefaultCSVReadOptions()
	}
	header, err := ReadHeader(filePath, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	schema, tsIdx, err := WideTableSchema(header, opts.TimestampColumn)
	if err != nil {
		return nil, &weather.ParseError{Table: name, Row: -1, Err: err}
	}

	reader, err := NewCSVRecordReader(ctx, filePath, schema, opts)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	table := weather.NewWideTable(name)
	columns := make([][]float64, len(header))
	_, err = arrio.Drain(reader, func(rec arrow.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts := rec.Column(tsIdx).(*array.String)
		for row := 0; row < ts.Len(); row++ {
			table.Timestamps = append(table.Timestamps, ts.Value(row))
		}
		for i := range header {
			if i == tsIdx {
				continue
			}
			col := rec.Column(i).(*array.Float64)
			for row := 0; row < col.Len(); row++ {
				if col.IsNull(row) {
					columns[i] = append(columns[i], math.NaN())
				} else {
					columns[i] = append(columns[i], col.Value(row))
				}
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &weather.ParseError{Table: name, Row: -1, Err: err}
	}

	for i, city := range header {
		if i == tsIdx {
			continue
		}
		if columns[i] == nil {
			columns[i] = []float64{}
		}
		table.AddColumn(city, columns[i])
	}
	return table, nil
}

// ReadCityAttributes loads the city attributes table. Latitude and Longitude
// columns are read as floats, every other column as text.
func ReadCityAttributes(ctx context.Context, filePath string, opts *CSVReadOptions) (weather.CityAttributes, error) {
	if opts == nil {
		opts = NewDefaultCSVReadOptions()
	}
	header, err := ReadHeader(filePath, opts.Delimiter)
	if err != nil {
		return nil, err
	}

	cityIdx, countryIdx, latIdx, lonIdx := -1, -1, -1, -1
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "city":
			cityIdx = i
		case "country":
			countryIdx = i
		case "latitude":
			latIdx = i
			fields[i].Type = arrow.PrimitiveTypes.Float64
		case "longitude":
			lonIdx = i
			fields[i].Type = arrow.PrimitiveTypes.Float64
		}
	}
	if cityIdx < 0 {
		return nil, &weather.ParseError{Table: "city_attributes", Row: -1, Err: fmt.Errorf("no City column in header")}
	}

	reader, err := NewCSVRecordReader(ctx, filePath, arrow.NewSchema(fields, nil), opts)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	attrs := make(weather.CityAttributes)
	_, err = arrio.Drain(reader, func(rec arrow.Record) error {
		cities := rec.Column(cityIdx).(*array.String)
		for row := 0; row < cities.Len(); row++ {
			if cities.IsNull(row) {
				continue
			}
			a := weather.CityAttribute{City: cities.Value(row)}
			if countryIdx >= 0 {
				if col := rec.Column(countryIdx).(*array.String); col.IsValid(row) {
					a.Country = col.Value(row)
				}
			}
			if latIdx >= 0 {
				if col := rec.Column(latIdx).(*array.Float64); col.IsValid(row) {
					a.Latitude = col.Value(row)
				}
			}
			if lonIdx >= 0 {
				if col := rec.Column(lonIdx).(*array.Float64); col.IsValid(row) {
					a.Longitude = col.Value(row)
				}
			}
			attrs[a.City] = a
		}
		return nil
	})
	if err != nil {
		return nil, &weather.ParseError{Table: "city_attributes", Row: -1, Err: err}
	}
	return attrs, nil
}

// CSVRecordWriter implements arrio.WriteCloser for writing records to CSV files.
type CSVRecordWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVRecordWriter creates filePath and writes a header row for schema.
// Nulls are written as empty cells.
func NewCSVRecordWriter(ctx context.Context, filePath string, schema *arrow.Schema, delimiter rune) (*CSVRecordWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	writer := csv.NewWriter(file, schema,
		csv.WithComma(delimiter),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)

	return &CSVRecordWriter{file: file, writer: writer}, nil
}

// Write writes a record to the CSV file.
func (w *CSVRecordWriter) Write(record arrow.Record) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	return nil
}

// Close flushes the CSV writer and closes the file.
func (w *CSVRecordWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("CSV writer encountered an error: %w", err)
	}
	return w.file.Close()
}
