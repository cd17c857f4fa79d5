package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/arrowarc/weatherarc/pipeline"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// RenderReport formats a run report for the terminal: a header block, one
// table row per city and any warnings.
func RenderReport(r *pipeline.Report) string {
	var b strings.Builder

	title := "weatherarc clean"
	if r.Output == "" {
		title = "weatherarc inspect"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(label+":"), value)
	}
	line("run", r.RunID)
	line("input", r.InputDir)
	if r.Output != "" {
		line("output", fmt.Sprintf("%s (%s)", r.Output, r.Format))
	}
	line("rows", fmt.Sprintf("%d in, %d out", r.InputRows, r.OutputRows))
	line("duration", r.Duration)
	if r.Fingerprint != "" {
		line("fingerprint", r.Fingerprint)
	}
	b.WriteString("\n")

	b.WriteString(cityTable(r).Render())
	b.WriteString("\n")

	warn := func(label string, cities []string) {
		if len(cities) > 0 {
			b.WriteString(WarnStyle.Render(fmt.Sprintf("%s: %s", label, strings.Join(cities, ", "))))
			b.WriteString("\n")
		}
	}
	warn("skipped (not in every table)", r.SkippedCities)
	warn("without attributes", r.UnlistedCities)
	warn("empty after cleaning", r.EmptyCities)

	return DocStyle.Render(b.String())
}

func cityTable(r *pipeline.Report) *table.Table {
	stats := make(map[string]weather.CityStats, len(r.CityStats))
	for _, s := range r.CityStats {
		stats[s.City] = s
	}

	headers := []string{"city", "rows"}
	if len(r.CityStats) > 0 {
		headers = append(headers, "complete", "deduped", "output")
	}
	headers = append(headers, "missing temp", "temp range")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers(headers...)

	after := make(map[string]weather.Summary, len(r.After))
	for _, s := range r.After {
		after[s.City] = s
	}

	for _, before := range r.Before {
		row := []string{before.City, strconv.Itoa(before.Rows)}
		if len(r.CityStats) > 0 {
			s := stats[before.City]
			row = append(row, strconv.Itoa(s.AfterCompleteness), strconv.Itoa(s.AfterDedup), strconv.Itoa(s.Output))
		}
		temp := before.Fields[weather.Temperature.String()]
		summary := before
		if s, ok := after[before.City]; ok {
			summary = s
		}
		row = append(row, strconv.Itoa(temp.Missing), valueRange(summary.Fields[weather.Temperature.String()]))
		t.Row(row...)
	}
	return t
}

func valueRange(f weather.FieldSummary) string {
	if f.Min == nil || f.Max == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f .. %.2f", *f.Min, *f.Max)
}
