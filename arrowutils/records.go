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

package arrowutils

import (
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/arrowarc/weatherarc/pkg/weather"
)

const (
	TimestampColumn = "timestamp"
	CityColumn      = "city"
)

// ObservationSchema is the long-form output schema: timestamp, city, then
// one nullable float column per measured field.
var ObservationSchema = newObservationSchema()

func newObservationSchema() *arrow.Schema {
	fields := []arrow.Field{
		{Name: TimestampColumn, Type: arrow.FixedWidthTypes.Timestamp_s},
		{Name: CityColumn, Type: arrow.BinaryTypes.String},
	}
	for _, f := range weather.Fields {
		fields = append(fields, arrow.Field{Name: f.String(), Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// DatasetToRecord builds a single record holding every observation of ds in
// order. Missing values become nulls. The caller must release the record.
func DatasetToRecord(mem memory.Allocator, ds weather.Dataset) arrow.Record {
	b := array.NewRecordBuilder(mem, ObservationSchema)
	defer b.Release()
	b.Reserve(len(ds))

	tsBldr := b.Field(0).(*array.TimestampBuilder)
	cityBldr := b.Field(1).(*array.StringBuilder)
	valueBldrs := make([]*array.Float64Builder, weather.NumFields)
	for i := range valueBldrs {
		valueBldrs[i] = b.Field(2 + i).(*array.Float64Builder)
	}

	for _, o := range ds {
		tsBldr.Append(arrow.Timestamp(o.Timestamp.Unix()))
		cityBldr.Append(o.City)
		for i, f := range weather.Fields {
			if o.Has(f) {
				valueBldrs[i].Append(o.Get(f))
			} else {
				valueBldrs[i].AppendNull()
			}
		}
	}

	return b.NewRecord()
}

// RecordToDataset reads observations back from a record carrying the
// ObservationSchema columns. Extra columns are ignored.
func RecordToDataset(rec arrow.Record) (weather.Dataset, error) {
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}

	tsCol, err := column[*array.Timestamp](rec, TimestampColumn)
	if err != nil {
		return nil, err
	}
	cityCol, err := column[*array.String](rec, CityColumn)
	if err != nil {
		return nil, err
	}
	valueCols := make([]*array.Float64, weather.NumFields)
	for i, f := range weather.Fields {
		if valueCols[i], err = column[*array.Float64](rec, f.String()); err != nil {
			return nil, err
		}
	}

	unit := tsCol.DataType().(*arrow.TimestampType).Unit
	ds := make(weather.Dataset, rec.NumRows())
	for row := range ds {
		o := weather.Observation{
			City:      cityCol.Value(row),
			Timestamp: tsCol.Value(row).ToTime(unit).UTC(),
		}
		for i, col := range valueCols {
			if col.IsNull(row) {
				o.Values[i] = math.NaN()
			} else {
				o.Values[i] = col.Value(row)
			}
		}
		ds[row] = o
	}
	return ds, nil
}

func column[T arrow.Array](rec arrow.Record, name string) (T, error) {
	var zero T
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return zero, fmt.Errorf("record has no %q column", name)
	}
	col, ok := rec.Column(idx[0]).(T)
	if !ok {
		return zero, fmt.Errorf("column %q has type %s", name, rec.Column(idx[0]).DataType())
	}
	return col, nil
}
