package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/monthsum/internal/buildinfo"
	"github.com/cleared-dev/monthsum/internal/codec"
	"github.com/cleared-dev/monthsum/internal/config"
	"github.com/cleared-dev/monthsum/internal/logging"
	"github.com/cleared-dev/monthsum/internal/pipeline"
	"github.com/cleared-dev/monthsum/internal/summary"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "monthsum",
		Short:   "Summarize spreadsheet measures by accounting month",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.FileName, "config file (defaults apply when missing)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(newSummarizeCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// setup loads configuration, applies environment and flag overrides, and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	load := config.LoadOrDefault
	if flags.Changed("config") {
		load = config.Load
	}
	cfg, err := load(a.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// service builds the decode/summarize/render pipeline from configuration.
func (a *app) service() *pipeline.Service {
	return pipeline.NewService(
		codec.DefaultRegistry(a.cfg.XLSXOptions()),
		summary.New(a.cfg.SummaryOptions(), a.logger.Named("summary")),
		a.logger.Named("pipeline"),
	)
}
