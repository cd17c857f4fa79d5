package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type reading struct {
	At     time.Time
	Values [2]float64
}

func TestEqualTreatsNaNAsEqual(t *testing.T) {
	at := time.Date(2012, 10, 1, 12, 0, 0, 0, time.UTC)
	x := []reading{{At: at, Values: [2]float64{282.1, math.NaN()}}}
	y := []reading{{At: at.In(time.FixedZone("PDT", -7*3600)), Values: [2]float64{282.1, math.NaN()}}}

	assert.True(t, Equal(x, y))
	assert.Empty(t, Diff(x, y))

	y[0].Values[1] = 0
	assert.False(t, Equal(x, y))
	assert.NotEmpty(t, Diff(x, y))
}

func TestApprox(t *testing.T) {
	assert.False(t, Equal(1.0, 1.0+1e-9))
	assert.True(t, Equal(1.0, 1.0+1e-9, Approx(1e-6)))
}
