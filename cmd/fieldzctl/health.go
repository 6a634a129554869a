package main

import (
	"context"
	"fmt"

	"connectrpc.com/grpchealth"
	"github.com/spf13/cobra"

	"github.com/mrodz/fieldz/internal/orchestrator"
	"github.com/mrodz/fieldz/internal/scheduler"
	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the scheduling server",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL := schedulerURL()
			client := grpchealth.NewClient(orchestrator.NewHTTPClient(baseURL), baseURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), scheduler.HealthProbeTimeout)
			defer cancel()

			resp, err := client.Check(ctx, &grpchealth.CheckRequest{
				Service: schedulerv1connect.SchedulerServiceName,
			})
			if err != nil {
				return fmt.Errorf("health probe failed: %w", err)
			}

			var status string
			switch resp.Status {
			case grpchealth.StatusServing:
				status = "serving"
			case grpchealth.StatusNotServing:
				status = "not serving"
			default:
				status = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", status, baseURL)
			return nil
		},
	}
}
