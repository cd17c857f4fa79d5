package arrowutils

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/weatherarc/internal/memory"
	"github.com/arrowarc/weatherarc/internal/testutil"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

func TestDatasetToRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator()
	defer mem.AssertSize(t, 0)

	ts := time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)
	ds := weather.Dataset{
		{City: "Portland", Timestamp: ts, Values: [weather.NumFields]float64{282.1, 81, 1024, 0, 0}},
		{City: "Seattle", Timestamp: ts.Add(time.Hour), Values: [weather.NumFields]float64{281.8, math.NaN(), 1027, 4, 150}},
	}

	rec := DatasetToRecord(mem, ds)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	require.True(t, rec.Schema().Equal(ObservationSchema))
	assert.Equal(t, "timestamp", rec.ColumnName(0))
	assert.Equal(t, "wind_direction", rec.ColumnName(6))

	hum := rec.Column(3).(*array.Float64)
	assert.False(t, hum.IsNull(0))
	assert.True(t, hum.IsNull(1))
	assert.Equal(t, arrow.Timestamp(ts.Unix()), rec.Column(0).(*array.Timestamp).Value(0))

	back, err := RecordToDataset(rec)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, ds[0], back[0])
	assert.Equal(t, "Seattle", back[1].City)
	assert.True(t, back[1].Timestamp.Equal(ts.Add(time.Hour)))
	assert.False(t, back[1].Has(weather.Humidity))
	assert.Empty(t, testutil.Diff(ds, back))
}

func TestRecordToDatasetRejectsForeignSchema(t *testing.T) {
	mem := memory.NewCheckedAllocator()
	defer mem.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{{Name: "city", Type: arrow.BinaryTypes.String}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).Append("Portland")
	rec := b.NewRecord()
	defer rec.Release()

	_, err := RecordToDataset(rec)
	assert.Error(t, err)
}
