package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrodz/fieldz/internal/orchestrator"
)

func newReportCommand() *cobra.Command {
	var matches int
	var interregional bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the pre-schedule feasibility report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			entityStore, database, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			report, err := newOrchestrator(entityStore).Preview(ctx, orchestrator.RunInput{
				MatchesToPlay: matches,
				Interregional: interregional,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "matches required: %d\n", report.TotalMatchesRequired)
			fmt.Fprintf(out, "matches supplied: %d\n", report.TotalMatchesSupplied)

			for _, entry := range report.TargetMatchCount {
				status := "ok"
				if !entry.AccountedFor() {
					status = "UNDERSUPPLIED"
				}
				fmt.Fprintf(out, "target %d: required [%s] supplied [%s] %s\n",
					entry.Target.Target.ID, entry.Required, entry.Supplied, status)
			}
			if len(report.EmptyTargets) > 0 {
				fmt.Fprintf(out, "empty targets (skipped): %v\n", report.EmptyTargets)
			}
			if len(report.ImpossibleTargets) > 0 {
				fmt.Fprintf(out, "impossible targets: %v\n", report.ImpossibleTargets)
			}
			if len(report.TargetHasDuplicates) > 0 {
				fmt.Fprintf(out, "duplicate targets: %v\n", report.TargetHasDuplicates)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&matches, "matches", "m", 1, "matches to play per pairing (1-7)")
	cmd.Flags().BoolVar(&interregional, "interregional", false, "allow matches across regions")
	return cmd
}
