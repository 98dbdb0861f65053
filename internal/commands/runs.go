package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/history"
)

func newRunsCommand(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent reconciliation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, _, err := g.load(cmd.Context())
			if err != nil {
				return err
			}
			return runRuns(ctx, cmd.OutOrStdout(), cfg, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "maximum number of runs to show")

	return cmd
}

func runRuns(ctx context.Context, out io.Writer, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return errors.New("run history is disabled (set history.path in " + config.FileName + ")")
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tORIGIN\tDAYS\tRECONCILED\tRATE\tADD\tREMOVE\tREJECTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s%%\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Origin,
			r.Days,
			r.ReconciledDays,
			r.Rate.StringFixed(1),
			r.ToAdd,
			r.ToRemove,
			r.Rejected,
		)
	}
	return tw.Flush()
}
