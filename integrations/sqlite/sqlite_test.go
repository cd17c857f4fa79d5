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

package sqlite

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/weatherarc/arrowutils"
	"github.com/arrowarc/weatherarc/internal/memory"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	mem := memory.NewCheckedAllocator()
	defer mem.AssertSize(t, 0)

	ts := time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)
	rec := arrowutils.DatasetToRecord(mem, weather.Dataset{
		{City: "Portland", Timestamp: ts, Values: [weather.NumFields]float64{282.08, 81, 1024, 0, 0}},
		{City: "Portland", Timestamp: ts.Add(time.Hour), Values: [weather.NumFields]float64{282.0, 80, 1024, 1, math.NaN()}},
	})
	defer rec.Release()

	w, err := NewSQLiteWriter(context.Background(), path, "")
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	assert.Equal(t, int64(2), w.Rows())
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT timestamp, city, temperature, wind_direction FROM observations ORDER BY timestamp")
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		ts, city string
		temp     float64
		dir      sql.NullFloat64
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.ts, &r.city, &r.temp, &r.dir))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, "2012-10-01 12:00:00", got[0].ts)
	assert.Equal(t, "Portland", got[0].city)
	assert.Equal(t, 282.08, got[0].temp)
	assert.True(t, got[0].dir.Valid)
	assert.Equal(t, "2012-10-01 13:00:00", got[1].ts)
	assert.False(t, got[1].dir.Valid)
}

func TestSQLiteWriterAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.db")

	w, err := NewSQLiteWriter(context.Background(), path, "readings")
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestValidTableName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"observations", true},
		{"_hourly_2012", true},
		{"2012", false},
		{"drop table; --", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidTableName(tt.name))
		})
	}

	_, err := NewSQLiteWriter(context.Background(), filepath.Join(t.TempDir(), "x.db"), "bad name")
	assert.Error(t, err)
}
