package pipeline

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/arrowarc/weatherarc/arrowutils"
	integrations "github.com/arrowarc/weatherarc/integrations/filesystem"
	"github.com/arrowarc/weatherarc/internal/memory"
	"github.com/arrowarc/weatherarc/pkg/common/config"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// Inputs are the loaded source tables of one run.
type Inputs struct {
	Attributes weather.CityAttributes
	Tables     weather.Tables
}

// Load reads the city attributes and the five field tables named by cfg.
func Load(ctx context.Context, cfg *config.Config, logger log.Logger) (*Inputs, error) {
	opts := integrations.NewDefaultCSVReadOptions()
	opts.TimestampColumn = cfg.Input.TimestampColumn
	opts.ChunkSize = cfg.Input.ChunkSize
	opts.Delimiter = cfg.DelimiterRune()

	attrs, err := integrations.ReadCityAttributes(ctx, cfg.AttributesPath(), opts)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "read city attributes", "path", cfg.AttributesPath(), "cities", len(attrs))

	in := &Inputs{Attributes: attrs}
	for _, f := range weather.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := cfg.TablePath(f)
		table, err := integrations.ReadWideTable(ctx, f.String(), path, opts)
		if err != nil {
			return nil, err
		}
		level.Debug(logger).Log("msg", "read table", "table", f, "path", path, "rows", table.Len(), "cities", len(table.Columns))
		in.Tables[f] = table
	}
	return in, nil
}

type runner struct {
	cfg     *config.Config
	logger  log.Logger
	metrics *Metrics
	report  *Report
}

func newRunner(cfg *config.Config, logger log.Logger) (*runner, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &runner{
		cfg:     cfg,
		logger:  log.With(logger, "run_id", runID),
		metrics: newMetrics(),
		report:  &Report{RunID: runID, InputDir: cfg.Input.Dir},
	}, nil
}

func (r *runner) stage(name string, fn func() error) error {
	stop := r.metrics.Stage(name)
	err := fn()
	d := stop()
	if err != nil {
		level.Error(r.logger).Log("msg", "stage failed", "stage", name, "err", err)
		return err
	}
	level.Info(r.logger).Log("msg", "stage complete", "stage", name, "duration", d)
	return nil
}

// merge loads the inputs and builds the unified dataset.
func (r *runner) merge(ctx context.Context) (*weather.MergeResult, error) {
	var in *Inputs
	if err := r.stage("load", func() (err error) {
		in, err = Load(ctx, r.cfg, r.logger)
		return err
	}); err != nil {
		return nil, err
	}

	var merged *weather.MergeResult
	if err := r.stage("merge", func() (err error) {
		merged, err = weather.NewMerger(r.logger, r.cfg.MergeOptions()).Merge(in.Tables)
		return err
	}); err != nil {
		return nil, err
	}

	unlisted := in.Attributes.Unlisted(merged.Included)
	for _, city := range unlisted {
		level.Warn(r.logger).Log("msg", "city has no attributes", "city", city)
	}

	rep := r.report
	rep.Cities = merged.Included
	rep.SkippedCities = merged.Skipped
	rep.UnlistedCities = unlisted
	rep.InputRows = len(merged.Dataset)
	rep.Before = weather.SummarizeByCity(merged.Dataset)
	r.metrics.RecordsIn = len(merged.Dataset)
	return merged, nil
}

// Run loads, merges and cleans the configured tables and writes the cleaned
// dataset to the configured output. No artifact is left behind on error.
func Run(ctx context.Context, cfg *config.Config, logger log.Logger) (*Report, error) {
	r, err := newRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	level.Info(r.logger).Log("msg", "run started", "input_dir", cfg.Input.Dir, "output", cfg.Output.Path, "format", cfg.Output.Format)

	merged, err := r.merge(ctx)
	if err != nil {
		return nil, err
	}

	var cleaned *weather.CleanResult
	if err := r.stage("clean", func() (err error) {
		cleaned, err = weather.NewCleaner(r.logger, cfg.CleanOptions()).Clean(ctx, merged.Dataset)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage("write", func() error {
		mem := memory.GetAllocator()
		defer memory.PutAllocator(mem)
		rec := arrowutils.DatasetToRecord(mem, cleaned.Dataset)
		defer rec.Release()
		return WriteArtifact(ctx, cfg.Output, rec)
	}); err != nil {
		return nil, err
	}

	rep := r.report
	rep.Output = cfg.Output.Path
	rep.Format = cfg.Output.Format
	rep.OutputRows = len(cleaned.Dataset)
	rep.EmptyCities = cleaned.EmptyCities()
	rep.After = weather.SummarizeByCity(cleaned.Dataset)
	rep.CityStats = cleaned.Stats
	rep.Fingerprint = fmt.Sprintf("%016x", weather.Fingerprint(cleaned.Dataset))
	r.metrics.RecordsOut = len(cleaned.Dataset)
	rep.finish(r.metrics)

	level.Info(r.logger).Log("msg", "run complete", "input_rows", rep.InputRows, "output_rows", rep.OutputRows, "fingerprint", rep.Fingerprint, "duration", rep.Duration)
	return rep, nil
}

// Inspect loads and merges the configured tables and describes them without
// cleaning or writing anything.
func Inspect(ctx context.Context, cfg *config.Config, logger log.Logger) (*Report, error) {
	r, err := newRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := r.merge(ctx); err != nil {
		return nil, err
	}
	r.report.finish(r.metrics)
	return r.report, nil
}
