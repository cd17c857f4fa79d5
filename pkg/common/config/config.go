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

// Package config provides configuration utilities.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/arrowarc/weatherarc/integrations/sqlite"
	"github.com/arrowarc/weatherarc/pkg/weather"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatIPC     = "ipc"
	FormatJSON    = "json"
	FormatSQLite  = "sqlite"
)

// Formats lists every supported output format.
var Formats = []string{FormatCSV, FormatParquet, FormatIPC, FormatJSON, FormatSQLite}

// Environment variables read by ApplyEnv.
const (
	EnvInputDir = "WEATHERARC_INPUT_DIR"
	EnvOutput   = "WEATHERARC_OUTPUT"
	EnvFormat   = "WEATHERARC_FORMAT"
	EnvCities   = "WEATHERARC_CITIES"
	EnvLogLevel = "WEATHERARC_LOG_LEVEL"
)

type Config struct {
	Input              Input    `yaml:"input"`
	Cities             []string `yaml:"cities"`
	SkipAlignmentCheck bool     `yaml:"skip_alignment_check"`
	Cleaning           Cleaning `yaml:"cleaning"`
	Output             Output   `yaml:"output"`
	Settings           Settings `yaml:"settings"`
}

// Input names the directory holding the source tables and the file name of
// each table inside it.
type Input struct {
	Dir             string `yaml:"input_dir"`
	Attributes      string `yaml:"city_attributes"`
	Temperature     string `yaml:"temperature"`
	Humidity        string `yaml:"humidity"`
	Pressure        string `yaml:"pressure"`
	WindSpeed       string `yaml:"wind_speed"`
	WindDirection   string `yaml:"wind_direction"`
	TimestampColumn string `yaml:"timestamp_column"`
	Delimiter       string `yaml:"delimiter"`
	ChunkSize       int    `yaml:"chunk_size"`
}

type Cleaning struct {
	MinPresentFields int     `yaml:"min_present_fields"`
	LowerQuantile    float64 `yaml:"lower_quantile"`
	UpperQuantile    float64 `yaml:"upper_quantile"`
	IQRMultiplier    float64 `yaml:"iqr_multiplier"`
}

type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Table  string `yaml:"table"`
}

type Settings struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	clean := weather.DefaultCleanOptions()
	return &Config{
		Input: Input{
			Dir:             ".",
			Attributes:      "city_attributes.csv",
			Temperature:     "temperature.csv",
			Humidity:        "humidity.csv",
			Pressure:        "pressure.csv",
			WindSpeed:       "wind_speed.csv",
			WindDirection:   "wind_direction.csv",
			TimestampColumn: "datetime",
			Delimiter:       ",",
			ChunkSize:       4096,
		},
		Cleaning: Cleaning{
			MinPresentFields: clean.MinPresentFields,
			LowerQuantile:    clean.LowerQuantile,
			UpperQuantile:    clean.UpperQuantile,
			IQRMultiplier:    clean.IQRMultiplier,
		},
		Output: Output{
			Path:   "clean_weather.csv",
			Format: FormatCSV,
			Table:  sqlite.DefaultTable,
		},
		Settings: Settings{
			LogLevel:  "info",
			LogFormat: "logfmt",
		},
	}
}

// ParseConfig reads a YAML file on top of Default. Keys absent from the file
// keep their default values.
func ParseConfig(configPath string) (*Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	config := Default()
	decoder := yaml.NewDecoder(configFile)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	return config, nil
}

// LoadEnv loads .env style files into the process environment. Missing files
// are ignored. Variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with the WEATHERARC_* environment variables that are set.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvInputDir); ok && v != "" {
		c.Input.Dir = v
	}
	if v, ok := os.LookupEnv(EnvOutput); ok && v != "" {
		c.Output.Path = v
	}
	if v, ok := os.LookupEnv(EnvFormat); ok && v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvCities); ok && v != "" {
		c.Cities = SplitCities(v)
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Settings.LogLevel = strings.ToLower(v)
	}
}

// SplitCities splits a comma separated city list, dropping empty entries.
func SplitCities(s string) []string {
	var cities []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

// TablePath returns the path of the input table holding f.
func (c *Config) TablePath(f weather.Field) string {
	var name string
	switch f {
	case weather.Temperature:
		name = c.Input.Temperature
	case weather.Humidity:
		name = c.Input.Humidity
	case weather.Pressure:
		name = c.Input.Pressure
	case weather.WindSpeed:
		name = c.Input.WindSpeed
	case weather.WindDirection:
		name = c.Input.WindDirection
	}
	return filepath.Join(c.Input.Dir, name)
}

// AttributesPath returns the path of the city attributes table.
func (c *Config) AttributesPath() string {
	return filepath.Join(c.Input.Dir, c.Input.Attributes)
}

// DelimiterRune returns the configured delimiter, ',' when unset.
func (c *Config) DelimiterRune() rune {
	if c.Input.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

func (c *Config) CleanOptions() weather.CleanOptions {
	return weather.CleanOptions{
		MinPresentFields: c.Cleaning.MinPresentFields,
		LowerQuantile:    c.Cleaning.LowerQuantile,
		UpperQuantile:    c.Cleaning.UpperQuantile,
		IQRMultiplier:    c.Cleaning.IQRMultiplier,
	}
}

func (c *Config) MergeOptions() weather.MergeOptions {
	return weather.MergeOptions{
		Cities:             c.Cities,
		SkipAlignmentCheck: c.SkipAlignmentCheck,
	}
}

// Validate reports the first problem found. Every error wraps
// weather.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateCleaning(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateSettings(); err != nil {
		return err
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", weather.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateInput() error {
	in := c.Input
	if in.Dir == "" {
		return invalid("input_dir cannot be empty")
	}
	files := map[string]string{
		"city_attributes": in.Attributes,
		"temperature":     in.Temperature,
		"humidity":        in.Humidity,
		"pressure":        in.Pressure,
		"wind_speed":      in.WindSpeed,
		"wind_direction":  in.WindDirection,
	}
	for key, name := range files {
		if name == "" {
			return invalid("input file %s cannot be empty", key)
		}
	}
	if in.TimestampColumn == "" {
		return invalid("timestamp_column cannot be empty")
	}
	if utf8.RuneCountInString(in.Delimiter) > 1 {
		return invalid("delimiter must be a single character, got %q", in.Delimiter)
	}
	if in.ChunkSize < 1 {
		return invalid("chunk_size must be greater than 0")
	}
	for _, city := range c.Cities {
		if strings.TrimSpace(city) == "" {
			return invalid("city names cannot be empty")
		}
	}
	return nil
}

func (c *Config) validateCleaning() error {
	if err := c.CleanOptions().Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Path == "" {
		return invalid("output path cannot be empty")
	}
	known := false
	for _, f := range Formats {
		if c.Output.Format == f {
			known = true
			break
		}
	}
	if !known {
		return invalid("unknown output format %q, want one of %s", c.Output.Format, strings.Join(Formats, ", "))
	}
	if c.Output.Format == FormatSQLite && !sqlite.ValidTableName(c.Output.Table) {
		return invalid("invalid sqlite table name %q", c.Output.Table)
	}
	return nil
}

func (c *Config) validateSettings() error {
	switch c.Settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("unknown log_level %q", c.Settings.LogLevel)
	}
	switch c.Settings.LogFormat {
	case "logfmt", "json":
	default:
		return invalid("unknown log_format %q", c.Settings.LogFormat)
	}
	return nil
}
