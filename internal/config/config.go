package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/monthsum/internal/codec"
	"github.com/cleared-dev/monthsum/internal/summary"
)

// FileName is the default config file name.
const FileName = "monthsum.yaml"

// Config represents the top-level monthsum.yaml configuration.
type Config struct {
	Summary SummaryConfig `yaml:"summary"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// SummaryConfig controls column detection and the result layout.
type SummaryConfig struct {
	SampleRows       int            `yaml:"sample_rows"`
	FillCalendarYear bool           `yaml:"fill_calendar_year"`
	MonthHeader      string         `yaml:"month_header"`
	Placeholder      string         `yaml:"placeholder"`
	Rules            []summary.Rule `yaml:"rules"`
}

// OutputConfig controls the written workbook.
type OutputConfig struct {
	SheetName   string `yaml:"sheet_name"`
	FileName    string `yaml:"file_name"`
	Suffix      string `yaml:"suffix"` // appended to input names in batch and inbox mode
	MinColWidth int    `yaml:"min_col_width"`
	MaxColWidth int    `yaml:"max_col_width"`
}

// ServerConfig controls the HTTP shell.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxUploadMB  int           `yaml:"max_upload_mb"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// Default returns a Config with the stock policy and layout.
func Default() *Config {
	opts := summary.DefaultOptions()
	xo := codec.DefaultXLSXOptions()
	return &Config{
		Summary: SummaryConfig{
			SampleRows:       opts.SampleRows,
			FillCalendarYear: opts.FillCalendarYear,
			MonthHeader:      opts.MonthHeader,
			Placeholder:      opts.Placeholder,
			Rules:            opts.Policy.Rules,
		},
		Output: OutputConfig{
			SheetName:   xo.SheetName,
			FileName:    "会计月汇总表.xlsx",
			Suffix:      "汇总",
			MinColWidth: xo.MinColWidth,
			MaxColWidth: xo.MaxColWidth,
		},
		Server: ServerConfig{
			Addr:         ":8081",
			MaxUploadMB:  20,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a monthsum.yaml file from disk. Fields absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Marshal renders a Config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overlays MONTHSUM_* environment variables, reading a .env file
// in the working directory first when one exists.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Server.Addr = getEnv("MONTHSUM_ADDR", c.Server.Addr)
	c.Server.MaxUploadMB = getEnvInt("MONTHSUM_MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Log.Level = getEnv("MONTHSUM_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("MONTHSUM_LOG_FORMAT", c.Log.Format)
}

// Validate returns every configuration problem in one error.
func (c *Config) Validate() error {
	var problems []string

	if c.Summary.SampleRows < 1 {
		problems = append(problems, fmt.Sprintf("invalid sample_rows %d: must be at least 1", c.Summary.SampleRows))
	}
	if strings.TrimSpace(c.Summary.MonthHeader) == "" {
		problems = append(problems, "month_header cannot be empty")
	}
	if !strings.Contains(c.Summary.Placeholder, "%d") {
		problems = append(problems, fmt.Sprintf("placeholder %q must contain %%d", c.Summary.Placeholder))
	}
	if err := c.Policy().Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.Output.MinColWidth < 1 || c.Output.MaxColWidth < c.Output.MinColWidth {
		problems = append(problems, fmt.Sprintf("invalid column widths %d..%d", c.Output.MinColWidth, c.Output.MaxColWidth))
	}
	if c.Output.SheetName == "" {
		problems = append(problems, "sheet_name cannot be empty")
	}

	if c.Server.MaxUploadMB < 1 {
		problems = append(problems, fmt.Sprintf("invalid max_upload_mb %d: must be at least 1", c.Server.MaxUploadMB))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be console or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Policy returns the configured keyword table.
func (c *Config) Policy() summary.Policy {
	return summary.Policy{Rules: c.Summary.Rules}
}

// SummaryOptions converts the summary section into engine options.
func (c *Config) SummaryOptions() summary.Options {
	return summary.Options{
		Policy:           c.Policy(),
		SampleRows:       c.Summary.SampleRows,
		FillCalendarYear: c.Summary.FillCalendarYear,
		MonthHeader:      c.Summary.MonthHeader,
		Placeholder:      c.Summary.Placeholder,
	}
}

// XLSXOptions converts the output section into codec options.
func (c *Config) XLSXOptions() codec.XLSXOptions {
	return codec.XLSXOptions{
		SheetName:   c.Output.SheetName,
		MinColWidth: c.Output.MinColWidth,
		MaxColWidth: c.Output.MaxColWidth,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
