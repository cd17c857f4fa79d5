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

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/weatherarc/internal/testutil"
)

var base = time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)

func hour(i int) time.Time { return base.Add(time.Duration(i) * time.Hour) }

// obs builds an observation; pass NaN for missing values.
func obs(city string, i int, temp, hum, pres, speed, dir float64) Observation {
	return Observation{City: city, Timestamp: hour(i), Values: [NumFields]float64{temp, hum, pres, speed, dir}}
}

// steady returns n hourly records of city with a slowly rising temperature
// and constant other fields.
func steady(city string, n int) []Observation {
	out := make([]Observation, n)
	for i := range out {
		out[i] = obs(city, i, 10+float64(i), 70, 1013, 3, 180)
	}
	return out
}

// noisy returns n hourly records with uniformly distributed fields.
func noisy(rng *rand.Rand, city string, n int) []Observation {
	out := make([]Observation, n)
	for i := range out {
		out[i] = obs(city, i,
			10+rng.Float64()*10,
			40+rng.Float64()*40,
			1000+rng.Float64()*20,
			rng.Float64()*8,
			rng.Float64()*360,
		)
	}
	return out
}

func TestFillLinear(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		in     []float64
		want   []float64
		filled int
	}{
		{name: "interior gap", in: []float64{1, nan, nan, 4}, want: []float64{1, 2, 3, 4}, filled: 2},
		{name: "leading gap", in: []float64{nan, nan, 5, 6}, want: []float64{5, 5, 5, 6}, filled: 2},
		{name: "trailing gap", in: []float64{2, 4, nan}, want: []float64{2, 4, 4}, filled: 1},
		{name: "both ends", in: []float64{nan, 1, nan, 3, nan}, want: []float64{1, 1, 2, 3, 3}, filled: 3},
		{name: "no gap", in: []float64{1, 2}, want: []float64{1, 2}, filled: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]float64(nil), tt.in...)
			assert.Equal(t, tt.filled, FillLinear(got))
			assert.Empty(t, testutil.Diff(tt.want, got, testutil.Approx(1e-9)))
		})
	}

	t.Run("all missing", func(t *testing.T) {
		got := []float64{nan, nan}
		assert.Equal(t, 0, FillLinear(got))
		assert.True(t, math.IsNaN(got[0]) && math.IsNaN(got[1]))
	})
}

func TestQuantile(t *testing.T) {
	values := []float64{5, 1, math.NaN(), 3, 2, 4}
	assert.InDelta(t, 3.0, Quantile(values, 0.5), 1e-9)
	assert.InDelta(t, 2.0, Quantile(values, 0.25), 1e-9)
	assert.InDelta(t, 1.04, Quantile(values, 0.01), 1e-9)
	assert.InDelta(t, 4.96, Quantile(values, 0.99), 1e-9)
	assert.True(t, math.IsNaN(Quantile([]float64{math.NaN()}, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.99))
}

func TestCleanDropsIncompleteAndDuplicateRecords(t *testing.T) {
	nan := math.NaN()
	a := steady("A", 10)
	a[4] = obs("A", 4, nan, nan, nan, nan, nan)

	b := steady("B", 10)
	b[5].Timestamp = b[4].Timestamp

	ds := append(Dataset{}, a...)
	ds = append(ds, b...)

	res, err := NewCleaner(nil, DefaultCleanOptions()).Clean(context.Background(), ds)
	require.NoError(t, err)

	cleanA := res.Dataset.City("A")
	cleanB := res.Dataset.City("B")
	assert.Len(t, cleanA, 9)
	assert.Len(t, cleanB, 9)
	for _, o := range cleanA {
		assert.False(t, o.Timestamp.Equal(hour(4)), "fully missing record should be dropped")
	}
	assert.Equal(t, 9, res.Stats[0].AfterCompleteness)
	assert.Equal(t, 9, res.Stats[1].AfterDedup)
}

func TestCleanRejectsSpike(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	records := make([]Observation, 0, 100)
	for i := 0; i < 99; i++ {
		records = append(records, obs("Denver", i, 10+rng.Float64()*10, 50, 1010, 4, 90))
	}
	records = append(records, obs("Denver", 99, 500, 50, 1010, 4, 90))

	out, stats := CleanCity("Denver", records, DefaultCleanOptions())
	assert.Len(t, out, 99)
	assert.Equal(t, 99, stats.Output)
	assert.Equal(t, 1, stats.Rejected["temperature"])
	for _, o := range out {
		assert.NotEqual(t, 500.0, o.Get(Temperature))
	}
}

func TestCompletenessThreshold(t *testing.T) {
	nan := math.NaN()
	records := []Observation{
		obs("X", 0, 1, 2, nan, nan, nan),
		obs("X", 1, 1, nan, nan, nan, nan),
		obs("X", 2, 1, 2, 3, 4, 5),
	}
	got := keepComplete(records, 2)
	require.Len(t, got, 2)
	assert.Equal(t, hour(0), got[0].Timestamp)
	assert.Equal(t, hour(2), got[1].Timestamp)

	assert.Len(t, keepComplete(records, 0), 3)
	assert.Len(t, keepComplete(records, NumFields), 1)
}

func TestCleanInterpolatesBeforeDedup(t *testing.T) {
	nan := math.NaN()
	records := []Observation{
		obs("X", 0, 10, 50, 1000, 2, 90),
		obs("X", 1, nan, 50, 1000, 2, 90),
		obs("X", 1, 30, 50, 1000, 2, 90),
		obs("X", 2, 40, 50, 1000, 2, 90),
	}

	out, stats := CleanCity("X", records, DefaultCleanOptions())
	require.Len(t, out, 3)
	// The first record at hour 1 wins and carries the value interpolated
	// between its positional neighbours 10 and 30.
	assert.InDelta(t, 20.0, out[1].Get(Temperature), 1e-9)
	assert.Equal(t, 1, stats.Filled["temperature"])
	assert.Equal(t, 3, stats.AfterDedup)
}

func TestOutlierRejectionCompounds(t *testing.T) {
	records := steady("X", 100)
	records[50] = obs("X", 50, 500, 1000, 1013, 3, 180)

	out, stats := CleanCity("X", records, DefaultCleanOptions())
	assert.Len(t, out, 99)
	assert.Equal(t, 1, stats.Rejected["temperature"])
	// The humidity outlier was already gone before humidity was checked.
	assert.Equal(t, 0, stats.Rejected["humidity"])
}

func TestWindDirectionIsNotOutlierChecked(t *testing.T) {
	records := steady("X", 50)
	records[10].Values[WindDirection] = 100000

	out, stats := CleanCity("X", records, DefaultCleanOptions())
	assert.Len(t, out, 50)
	_, checked := stats.Bounds["wind_direction"]
	assert.False(t, checked)
}

func TestCleanFieldWithoutValuesEmptiesCity(t *testing.T) {
	nan := math.NaN()
	ds := Dataset{}
	for i := 0; i < 5; i++ {
		ds = append(ds, obs("Dry", i, 10, 50, nan, 3, 90))
	}
	ds = append(ds, steady("Wet", 5)...)

	res, err := NewCleaner(nil, DefaultCleanOptions()).Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dry"}, res.EmptyCities())
	assert.Empty(t, res.Dataset.City("Dry"))
	assert.Len(t, res.Dataset.City("Wet"), 5)
}

func TestCleanIncompleteCityIsEmptyNotError(t *testing.T) {
	sparse := NewObservation("Z", hour(0))
	sparse.Values[Temperature] = 12
	ds := Dataset{sparse, NewObservation("Z", hour(1))}
	ds = append(ds, steady("Y", 5)...)
	ds.Sort()

	res, err := NewCleaner(nil, DefaultCleanOptions()).Clean(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, res.Stats, 2)
	z := res.Stats[1]
	assert.Equal(t, "Z", z.City)
	assert.Equal(t, 2, z.Input)
	assert.Equal(t, 0, z.AfterCompleteness)
	assert.Equal(t, 0, z.Output)
	assert.Equal(t, []string{"Z"}, res.EmptyCities())
	assert.Len(t, res.Dataset.City("Y"), 5)
	assert.Equal(t, 5, res.Stats[0].Output)
}

func TestDedupeDistinguishesDistantInstants(t *testing.T) {
	// 2^64ns apart: equal UnixNano after overflow.
	early := time.Unix(-20e9, 0).UTC()
	late := time.Unix(-20e9+18446744073, 709551616).UTC()
	require.Equal(t, early.UnixNano(), late.UnixNano())

	a := steady("A", 2)
	a[0].Timestamp, a[1].Timestamp = early, late
	assert.Len(t, dedupe(append([]Observation(nil), a...)), 2)

	b := append([]Observation(nil), a...)
	b[1].Timestamp = early
	assert.NotEqual(t, Fingerprint(Dataset(a)), Fingerprint(Dataset(b)))
}

func TestCleanedDatasetProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nan := math.NaN()

	var ds Dataset
	for _, city := range []string{"Seattle", "Portland", "Boston"} {
		records := noisy(rng, city, 300)
		for i := 0; i < 20; i++ {
			j := rng.Intn(len(records))
			records[j].Values[rng.Intn(NumFields)] = nan
		}
		records[17].Values[Temperature] = 900
		records[120].Values[Pressure] = -50
		records[200].Timestamp = records[199].Timestamp
		ds = append(ds, records...)
	}
	ds.Sort()

	opts := DefaultCleanOptions()
	res, err := NewCleaner(nil, opts).Clean(context.Background(), ds)
	require.NoError(t, err)

	for city, records := range res.Dataset.Partition() {
		seen := make(map[time.Time]bool)
		for i, o := range records {
			assert.False(t, seen[o.Timestamp], "%s has duplicate timestamp %s", city, o.Timestamp)
			seen[o.Timestamp] = true
			if i > 0 {
				assert.True(t, records[i-1].Timestamp.Before(o.Timestamp))
			}
			for _, f := range Fields {
				assert.True(t, o.Has(f), "%s %s should be filled", city, f)
			}
		}
		for _, f := range OutlierFields {
			col := make([]float64, len(records))
			for i, o := range records {
				col[i] = o.Get(f)
			}
			b := IQRBound(col, opts.LowerQuantile, opts.UpperQuantile, opts.IQRMultiplier)
			for _, v := range col {
				assert.True(t, b.Contains(v), "%s %s value %v outside %v", city, f, v, b)
			}
		}
	}

	again, err := NewCleaner(nil, opts).Clean(context.Background(), res.Dataset)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(res.Dataset), Fingerprint(again.Dataset), "cleaning must be idempotent")
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	nan := math.NaN()
	ds := Dataset{obs("X", 0, 1, 2, 3, 4, 5), obs("X", 1, nan, 2, 3, 4, 5), obs("X", 2, 3, 2, 3, 4, 5)}
	before := Fingerprint(ds)

	_, err := NewCleaner(nil, DefaultCleanOptions()).Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, before, Fingerprint(ds))
}

func TestCleanHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCleaner(nil, DefaultCleanOptions()).Clean(ctx, Dataset(steady("X", 3)))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCleanOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CleanOptions)
	}{
		{"lower quantile negative", func(o *CleanOptions) { o.LowerQuantile = -0.1 }},
		{"upper quantile above one", func(o *CleanOptions) { o.UpperQuantile = 1.2 }},
		{"lower above upper", func(o *CleanOptions) { o.LowerQuantile, o.UpperQuantile = 0.9, 0.1 }},
		{"negative multiplier", func(o *CleanOptions) { o.IQRMultiplier = -1 }},
		{"too many present fields", func(o *CleanOptions) { o.MinPresentFields = 6 }},
	}

	assert.NoError(t, DefaultCleanOptions().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCleanOptions()
			tt.mutate(&opts)
			assert.True(t, errors.Is(opts.Validate(), ErrInvalidConfig))
		})
	}
}
