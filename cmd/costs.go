package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/store/sqlite"
	"github.com/davidbz/folio/internal/store/summary"
)

type costsDeps struct {
	dig.In
	Summaries *summary.Store
	Ledger    *sqlite.Ledger
}

func newCostsCmd(container *dig.Container) *cobra.Command {
	var (
		allRuns bool
		since   string
	)

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show the last run's cost summary, or every recorded run merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return container.Invoke(func(deps costsDeps) error {
				ctx := cmd.Context()
				if deps.Ledger != nil {
					defer func() { _ = deps.Ledger.Close() }()
				}

				if !allRuns {
					costs, err := deps.Summaries.Load(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Run %s at %s\n", costs.RunID, costs.Timestamp.Format(time.RFC3339))
					printSummary(cmd.OutOrStdout(), costs)
					return nil
				}

				if deps.Ledger == nil {
					return errors.New("--all-runs needs a run ledger: set LEDGER_PATH")
				}

				var sinceTime time.Time
				if since != "" {
					t, err := time.Parse("2006-01-02", since)
					if err != nil {
						return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
					}
					sinceTime = t
				}

				merged, err := deps.Ledger.Merged(ctx, sinceTime)
				if err != nil {
					return err
				}
				printMerged(cmd, merged)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allRuns, "all-runs", false, "merge every run recorded in the ledger")
	cmd.Flags().StringVar(&since, "since", "", "with --all-runs, only runs on or after this date (YYYY-MM-DD)")

	return cmd
}

func printMerged(cmd *cobra.Command, merged domain.CostSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "%d records across recorded runs (%d failed)\n",
		merged.RecordCount, merged.FailureCount)
	printSummary(cmd.OutOrStdout(), merged)
}
