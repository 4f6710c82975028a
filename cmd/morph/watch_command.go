package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live session: auto-refresh the job list and poll active jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := session.manager.Refresh(runCtx); err != nil {
				return err
			}
			if err := session.manager.Start(runCtx); err != nil {
				return err
			}
			defer session.manager.Stop()

			out := cmd.OutOrStdout()
			clearScreen := isatty.IsTerminal(os.Stdout.Fd())

			redraw := func() {
				if clearScreen {
					fmt.Fprint(out, "\033[2J\033[H")
				}
				records := session.manager.Jobs()
				if len(records) == 0 {
					fmt.Fprintln(out, "No jobs found")
				} else {
					fmt.Fprintln(out, renderJobsTable(records))
				}
				fmt.Fprintln(out, "Press Ctrl+C to stop watching")
			}

			redraw()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-ticker.C:
					redraw()
				}
			}
		},
	}
	return cmd
}
