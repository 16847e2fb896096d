package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/monthsum/internal/inbox"
)

func newWatchCommand(a *app) *cobra.Command {
	var once bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Summarize spreadsheets dropped into <dir>/import",
		Long: `Watches <dir>/import for spreadsheets. Each one is summarized into
<dir>/export/<base>-<suffix>.xlsx and then moved to <dir>/import/processed,
or to <dir>/import/failed when it cannot be summarized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), a, absDir, once, debounce)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "process the current backlog and exit")
	cmd.Flags().DurationVar(&debounce, "debounce", inbox.DefaultDebounce, "quiet period before processing new files")

	return cmd
}

func runWatch(ctx context.Context, out io.Writer, a *app, root string, once bool, debounce time.Duration) error {
	proc := inbox.NewProcessor(root, a.service(), a.cfg.Output.Suffix, a.logger.Named("inbox"))

	if once {
		rep, err := proc.ProcessAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Processed %d file(s), %d failed\n", len(rep.Processed), len(rep.Failed))
		if len(rep.Failed) > 0 {
			return fmt.Errorf("%d file(s) failed; see %s", len(rep.Failed), filepath.Join(root, "import", "failed"))
		}
		return nil
	}

	return inbox.NewWatcher(proc, debounce, a.logger.Named("inbox")).Run(ctx)
}
