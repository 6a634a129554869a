package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrodz/fieldz/internal/orchestrator"
)

func newScheduleCommand() *cobra.Command {
	var matches int
	var interregional, postSeason bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the scheduler and persist the resulting schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			entityStore, database, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			result, err := newOrchestrator(entityStore).Run(ctx, orchestrator.RunInput{
				MatchesToPlay:     matches,
				Interregional:     interregional,
				IncludePostSeason: postSeason,
			})
			if errors.Is(err, orchestrator.ErrReportBlocked) {
				fmt.Fprintln(cmd.ErrOrStderr(), "configuration errors block scheduling; run `fieldzctl report` for details")
				return err
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created schedule %q (id %d)\n", result.Schedule.Name, result.Schedule.ID)
			for id, count := range result.UnplacedPairs {
				fmt.Fprintf(out, "warning: input %d left %d pairs unplaced\n", id, count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&matches, "matches", "m", 1, "matches to play per pairing (1-7)")
	cmd.Flags().BoolVar(&interregional, "interregional", false, "allow matches across regions")
	cmd.Flags().BoolVar(&postSeason, "post-season", false, "also schedule the post-season phase")
	return cmd
}
