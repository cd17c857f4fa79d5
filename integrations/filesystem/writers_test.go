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
	"context"
	stdcsv "encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/weatherarc/arrowutils"
	"github.com/arrowarc/weatherarc/internal/arrio"
	"github.com/arrowarc/weatherarc/internal/memory"
	"github.com/arrowarc/weatherarc/internal/testutil"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

func sampleDataset() weather.Dataset {
	ts := time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)
	return weather.Dataset{
		{City: "Portland", Timestamp: ts, Values: [weather.NumFields]float64{282.08, 81, 1024, 0, 0}},
		{City: "Portland", Timestamp: ts.Add(time.Hour), Values: [weather.NumFields]float64{282.0, 80, 1024, 1, math.NaN()}},
		{City: "Seattle", Timestamp: ts, Values: [weather.NumFields]float64{281.8, 88, 1027, 4, 150}},
	}
}

func sampleRecord(t *testing.T) arrow.Record {
	t.Helper()
	mem := memory.NewCheckedAllocator()
	rec := arrowutils.DatasetToRecord(mem, sampleDataset())
	t.Cleanup(func() {
		rec.Release()
		mem.AssertSize(t, 0)
	})
	return rec
}

func readAll(t *testing.T, r arrio.Reader) weather.Dataset {
	t.Helper()
	var out weather.Dataset
	_, err := arrio.Drain(r, func(rec arrow.Record) error {
		ds, err := arrowutils.RecordToDataset(rec)
		if err != nil {
			return err
		}
		out = append(out, ds...)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestCSVRecordWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")

	w, err := NewCSVRecordWriter(context.Background(), path, arrowutils.ObservationSchema, ',')
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord(t)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := stdcsv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"timestamp", "city", "temperature", "humidity", "pressure", "wind_speed", "wind_direction"}, rows[0])
	assert.Equal(t, "Portland", rows[1][1])
	assert.NotEmpty(t, rows[1][0])
	assert.Equal(t, "", rows[2][6], "missing values are written as empty cells")
	assert.Equal(t, "Seattle", rows[3][1])
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.parquet")

	w, err := NewParquetWriter(path, arrowutils.ObservationSchema, nil)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord(t)))
	require.NoError(t, w.Close())

	r, err := NewParquetReader(context.Background(), path, 1024)
	require.NoError(t, err)
	defer r.Close()

	got := readAll(t, r)
	require.Len(t, got, 3)
	assert.Empty(t, testutil.Diff(sampleDataset(), got))
}

func TestIPCRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.arrow")

	w, err := NewIPCWriter(path, arrowutils.ObservationSchema)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord(t)))
	require.NoError(t, w.Close())

	r, err := NewIPCReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.Schema().Equal(arrowutils.ObservationSchema))
	got := readAll(t, r)
	assert.Equal(t, weather.Fingerprint(sampleDataset()), weather.Fingerprint(got))
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.jsonl")

	w, err := NewJSONWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord(t)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, rows, 3)
	assert.Equal(t, "2012-10-01 12:00:00", rows[0]["timestamp"])
	assert.Equal(t, "Portland", rows[0]["city"])
	assert.Equal(t, 282.08, rows[0]["temperature"])
	assert.Nil(t, rows[1]["wind_direction"])
	assert.Contains(t, rows[1], "wind_direction")
}
