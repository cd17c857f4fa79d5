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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/go-kit/log/level"

	"github.com/arrowarc/weatherarc/generator"
	"github.com/arrowarc/weatherarc/internal/logging"
	"github.com/arrowarc/weatherarc/internal/ui"
	"github.com/arrowarc/weatherarc/pipeline"
	"github.com/arrowarc/weatherarc/pkg/common/config"
)

const version = "0.1.0"

const usage = `weatherarc: merge and clean the historical hourly weather archive.

Usage:
  weatherarc clean [options]
  weatherarc inspect [options]
  weatherarc generate --out=<dir> [--cities=<list>] [--hours=<n>] [--seed=<n>]
  weatherarc validate-config [--config=<file>] [--env=<file>]
  weatherarc -h | --help
  weatherarc --version

Options:
  -h --help               Show this screen.
  --version               Show version.
  --config=<file>         YAML configuration file.
  --env=<file>            Environment file loaded before overrides [default: .env].
  --input=<dir>           Directory holding the archive tables.
  --output=<path>         Output artifact path.
  --format=<fmt>          Output format: csv, parquet, ipc, json or sqlite.
  --table=<name>          Table name for the sqlite format.
  --cities=<list>         Comma separated city selection.
  --skip-alignment-check  Zip tables by row position without verifying timestamps.
  --log-level=<level>     debug, info, warn or error.
  --log-format=<fmt>      logfmt or json.
  --report=<file>         Write the JSON run report to a file.
  --quiet                 Do not print the console summary.
  --out=<dir>             Directory the generated tables are written to.
  --hours=<n>             Hours of data to generate [default: 336].
  --seed=<n>              Random seed for generated data [default: 1].
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// --help and --version are answered by the parser itself.
	var answer string
	parser := &docopt.Parser{HelpHandler: func(err error, output string) {
		if err == nil {
			answer = output
		}
	}}
	opts, err := parser.ParseArgs(usage, args, version)
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing arguments: %v\n%s", err, usage)
		return 1
	}
	if answer != "" {
		fmt.Fprintln(stdout, answer)
		return 0
	}

	switch {
	case flag(opts, "generate"):
		return generate(opts, stdout, stderr)
	case flag(opts, "validate-config"):
		if _, err := loadConfig(opts); err != nil {
			fmt.Fprintf(stderr, "Configuration validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Configuration is valid.")
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration validation failed: %v\n", err)
		return 1
	}
	logger, err := logging.New(stderr, cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return 1
	}

	var rep *pipeline.Report
	if flag(opts, "inspect") {
		rep, err = pipeline.Inspect(ctx, cfg, logger)
	} else {
		rep, err = pipeline.Run(ctx, cfg, logger)
	}
	if err != nil {
		level.Error(logger).Log("msg", "run failed", "err", err)
		return 1
	}

	if path := str(opts, "--report"); path != "" {
		if err := writeReport(path, rep); err != nil {
			level.Error(logger).Log("msg", "failed to write report", "path", path, "err", err)
			return 1
		}
	}
	if !flag(opts, "--quiet") {
		fmt.Fprintln(stdout, ui.RenderReport(rep))
	}
	return 0
}

// loadConfig layers the defaults, the config file, the environment and the
// command line flags, in that order, and validates the result.
func loadConfig(opts docopt.Opts) (*config.Config, error) {
	cfg := config.Default()
	if path := str(opts, "--config"); path != "" {
		parsed, err := config.ParseConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg = parsed
	}

	if err := config.LoadEnv(str(opts, "--env")); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if v := str(opts, "--input"); v != "" {
		cfg.Input.Dir = v
	}
	if v := str(opts, "--output"); v != "" {
		cfg.Output.Path = v
	}
	if v := str(opts, "--format"); v != "" {
		cfg.Output.Format = v
	}
	if v := str(opts, "--table"); v != "" {
		cfg.Output.Table = v
	}
	if v := str(opts, "--cities"); v != "" {
		cfg.Cities = config.SplitCities(v)
	}
	if flag(opts, "--skip-alignment-check") {
		cfg.SkipAlignmentCheck = true
	}
	if v := str(opts, "--log-level"); v != "" {
		cfg.Settings.LogLevel = v
	}
	if v := str(opts, "--log-format"); v != "" {
		cfg.Settings.LogFormat = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func generate(opts docopt.Opts, stdout, stderr io.Writer) int {
	hours, err := strconv.Atoi(str(opts, "--hours"))
	if err != nil {
		fmt.Fprintf(stderr, "Invalid --hours: %v\n", err)
		return 1
	}
	seed, err := strconv.ParseInt(str(opts, "--seed"), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid --seed: %v\n", err)
		return 1
	}
	dir := str(opts, "--out")
	if err := generator.GenerateWideTables(dir, config.SplitCities(str(opts, "--cities")), hours, seed); err != nil {
		fmt.Fprintf(stderr, "Error generating tables: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Generated %d hours of weather tables in %s\n", hours, dir)
	return 0
}

func writeReport(path string, rep *pipeline.Report) error {
	out, err := rep.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

func str(opts docopt.Opts, key string) string {
	s, _ := opts[key].(string)
	return s
}

func flag(opts docopt.Opts, key string) bool {
	b, _ := opts[key].(bool)
	return b
}
