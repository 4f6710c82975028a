package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"morph/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var showStats bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List conversion jobs known to the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.close()

			if showStats {
				stats, err := session.client.ServiceStats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total jobs:     %d\n", stats.TotalJobs)
				fmt.Fprintf(out, "Completed jobs: %d\n", stats.CompletedJobs)
				fmt.Fprintf(out, "Success rate:   %.1f%%\n", stats.SuccessRate)
				return nil
			}

			if err := session.manager.Refresh(cmd.Context()); err != nil {
				return err
			}

			records := session.manager.Jobs()
			if statusFilter != "" {
				status, ok := jobs.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q (expected one of %v)", statusFilter, jobs.AllStatuses())
				}
				filtered := records[:0]
				for _, record := range records {
					if record.Status == status {
						filtered = append(filtered, record)
					}
				}
				records = filtered
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobsTable(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only show jobs with this status")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Show service-side conversion statistics")
	return cmd
}
