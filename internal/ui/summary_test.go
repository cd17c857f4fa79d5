package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arrowarc/weatherarc/pipeline"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

func TestRenderReport(t *testing.T) {
	lo, hi := 270.5, 290.25
	rep := &pipeline.Report{
		RunID:         "c0ffee",
		InputDir:      "archive",
		Output:        "clean.csv",
		Format:        "csv",
		InputRows:     10,
		OutputRows:    8,
		Fingerprint:   "00000000deadbeef",
		SkippedCities: []string{"Atlantis"},
		Before: []weather.Summary{{
			City: "Portland",
			Rows: 10,
			Fields: map[string]weather.FieldSummary{
				"temperature": {Missing: 2, Min: &lo, Max: &hi},
			},
		}},
		CityStats: []weather.CityStats{{City: "Portland", Input: 10, AfterCompleteness: 9, AfterDedup: 8, Output: 8}},
	}

	out := RenderReport(rep)
	assert.Contains(t, out, "weatherarc clean")
	assert.Contains(t, out, "Portland")
	assert.Contains(t, out, "270.50 .. 290.25")
	assert.Contains(t, out, "00000000deadbeef")
	assert.Contains(t, out, "Atlantis")
}

func TestRenderInspection(t *testing.T) {
	out := RenderReport(&pipeline.Report{
		RunID:  "c0ffee",
		Before: []weather.Summary{{City: "Seattle", Rows: 3, Fields: map[string]weather.FieldSummary{}}},
	})
	assert.Contains(t, out, "weatherarc inspect")
	assert.Contains(t, out, "Seattle")
	assert.NotContains(t, out, "fingerprint")
}
