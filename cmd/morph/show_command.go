package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"morph/internal/services"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the current state of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newAPIClient()
			if err != nil {
				return err
			}

			record, err := client.GetJob(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, services.ErrJobNotFound) {
					return fmt.Errorf("job %s not found", args[0])
				}
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, record)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:        %s\n", record.JobID)
			fmt.Fprintf(out, "Status:     %s\n", statusLabel(record.Status))
			if record.InputFilename != "" {
				fmt.Fprintf(out, "File:       %s\n", record.InputFilename)
			}
			if record.ConversionType != "" {
				fmt.Fprintf(out, "Type:       %s\n", record.ConversionType)
			}
			if record.ProcessingTime > 0 {
				fmt.Fprintf(out, "Duration:   %s\n", formatProcessingTime(record.ProcessingTime))
			}
			if record.FileSize > 0 {
				fmt.Fprintf(out, "Size:       %s\n", formatFileSize(record.FileSize))
			}
			if record.DownloadURL != "" {
				fmt.Fprintf(out, "Download:   %s\n", record.DownloadURL)
			}
			if record.Message != "" {
				fmt.Fprintf(out, "Message:    %s\n", record.Message)
			}
			return nil
		},
	}
	return cmd
}
