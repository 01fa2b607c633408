// -- cmd/history.go --
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/winpilot-cli/internal/journal"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
)

// newHistoryCmd creates and configures the `history` command.
func newHistoryCmd() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent navigation runs from the journal",
		Long: `Lists the newest journaled navigation runs. Journaling is active only
when a database DSN is configured (WINPILOT_JOURNAL_DSN); without one,
navigate and run leave no history behind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := configFromContext(ctx)

			dsn := cfg.Journal().DSN
			if dsn == "" {
				return fmt.Errorf("journal DSN is not configured (WINPILOT_JOURNAL_DSN)")
			}

			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return fmt.Errorf("failed to connect to journal database: %w", err)
			}
			defer pool.Close()

			j, err := journal.New(ctx, pool, logger)
			if err != nil {
				return err
			}
			runs, err := j.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No journaled runs.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tWINDOW\tPATH\tSTEPS\tOK\tTOOK")
			for _, run := range runs {
				ok := "yes"
				if !run.Succeeded {
					ok = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					run.StartedAt.Local().Format(time.DateTime),
					run.WindowTitle,
					run.Path,
					run.StepsExecuted, run.StepsPlanned,
					ok,
					run.Duration.Round(time.Millisecond))
			}
			return w.Flush()
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show.")

	return historyCmd
}
