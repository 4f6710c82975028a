package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job and its artifacts from the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.close()

			// The store starts empty per invocation; resync so the delete
			// has a record to act on.
			if err := session.manager.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := session.manager.DeleteJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
			return nil
		},
	}
	return cmd
}
