package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/monthsum/internal/model"
	"github.com/cleared-dev/monthsum/internal/pipeline"
	"github.com/cleared-dev/monthsum/internal/source"
)

type summarizeOptions struct {
	output string
	format string
	outDir string
	jobs   int
}

func newSummarizeCommand(a *app) *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize <input...>",
		Short: "Sum measure columns per accounting month",
		Long: `Reads each input spreadsheet (path, http(s) URL, or - for stdin),
groups its measure columns by the accounting-month column and writes the
monthly totals.

With one input the result goes to --output (default from config). With
several inputs each result is written as <base>-<suffix>.<format>, next to
its input or under --out-dir.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pipeline.ValidFormat(opts.format) {
				return fmt.Errorf("invalid --format %q: must be xlsx, csv or json", opts.format)
			}
			opts.format = strings.ToLower(opts.format)
			if len(args) == 1 {
				return runSummarizeOne(cmd.Context(), cmd.OutOrStdout(), a, args[0], opts)
			}
			if opts.output != "" {
				return errors.New("--output applies to a single input; use --out-dir with several")
			}
			return runSummarizeBatch(cmd.Context(), a, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVar(&opts.format, "format", pipeline.FormatXLSX, "output format: xlsx, csv or json")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for batch outputs (default: next to each input)")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 4, "inputs summarized concurrently")

	return cmd
}

func runSummarizeOne(ctx context.Context, stdout io.Writer, a *app, input string, opts summarizeOptions) error {
	svc := a.service()

	dst := opts.output
	if dst == "" {
		if opts.format == pipeline.FormatJSON {
			dst = source.Stdio
		} else {
			name := a.cfg.Output.FileName
			dst = strings.TrimSuffix(name, filepath.Ext(name)) + pipeline.Extension(opts.format)
		}
	}

	data, err := source.ReadAll(ctx, input)
	if err != nil {
		return err
	}

	table, err := svc.Summarize(source.Name(input), data)
	if err != nil {
		if opts.format == pipeline.FormatJSON {
			if out, rerr := pipeline.RenderResult(model.Failed(err.Error())); rerr == nil {
				_ = writeOutput(stdout, dst, out)
			}
		}
		return fmt.Errorf("summarizing %s: %w", input, err)
	}

	out, err := svc.Render(table, opts.format)
	if err != nil {
		return err
	}
	if err := writeOutput(stdout, dst, out); err != nil {
		return err
	}
	if dst != source.Stdio {
		fmt.Fprintf(stdout, "Wrote %d months to %s\n", len(table)-1, dst)
	}
	return nil
}

func runSummarizeBatch(ctx context.Context, a *app, inputs []string, opts summarizeOptions) error {
	svc := a.service()

	jobs := opts.jobs
	if jobs < 1 {
		jobs = 1
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, input := range inputs {
		g.Go(func() error {
			dst := batchOutputName(input, opts.outDir, a.cfg.Output.Suffix, opts.format)
			err := summarizeTo(gctx, svc, input, dst, opts.format)
			if err != nil {
				a.logger.Error("summarize failed", zap.String("input", input), zap.Error(err))
				mu.Lock()
				failed = append(failed, input)
				mu.Unlock()
				return nil
			}
			a.logger.Info("wrote summary", zap.String("input", input), zap.String("output", dst))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d inputs failed: %s", len(failed), len(inputs), strings.Join(failed, ", "))
	}
	return nil
}

func summarizeTo(ctx context.Context, svc *pipeline.Service, input, dst, format string) error {
	data, err := source.ReadAll(ctx, input)
	if err != nil {
		return err
	}
	out, err := svc.Process(source.Name(input), data, format)
	if err != nil {
		return err
	}
	return source.WriteAll(dst, out)
}

func batchOutputName(input, outDir, suffix, format string) string {
	name := source.OutputName(input, suffix, pipeline.Extension(format))
	if outDir != "" {
		return filepath.Join(outDir, filepath.Base(name))
	}
	return name
}

// writeOutput sends data to stdout for "-" and to a file otherwise.
func writeOutput(stdout io.Writer, dst string, data []byte) error {
	if dst == source.Stdio {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
		return nil
	}
	return source.WriteAll(dst, data)
}
