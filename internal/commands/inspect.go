package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/monthsum/internal/source"
	"github.com/cleared-dev/monthsum/internal/summary"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show the detected month column and why each column is or is not summed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), a, args[0])
		},
	}
}

func runInspect(ctx context.Context, out io.Writer, a *app, input string) error {
	svc := a.service()

	data, err := source.ReadAll(ctx, input)
	if err != nil {
		return err
	}
	t, err := svc.Decode(source.Name(input), data)
	if err != nil {
		return err
	}

	an, err := svc.Engine().Analyze(t)
	if errors.Is(err, summary.ErrInputEmpty) {
		return err
	}

	fmt.Fprintf(out, "Input:        %s\n", input)
	fmt.Fprintf(out, "Data rows:    %d\n", an.DataRows)
	if an.MonthIndex < 0 {
		fmt.Fprintf(out, "Month column: not found\n")
		return err
	}
	fmt.Fprintf(out, "Month column: %d (%s)\n\n", an.MonthIndex+1, an.Headers[an.MonthIndex])

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COL\tHEADER\tVERDICT\tCATEGORY")
	for _, c := range an.Columns {
		category := c.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Index+1, c.Label, c.Verdict, category)
	}
	if ferr := tw.Flush(); ferr != nil {
		return fmt.Errorf("writing table: %w", ferr)
	}
	return err
}
