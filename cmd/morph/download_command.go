package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download the result of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer session.close()

			destDir := session.cfg.Server.DownloadDir
			if dir := strings.TrimSpace(outputDir); dir != "" {
				destDir = dir
			}

			if err := session.manager.Refresh(cmd.Context()); err != nil {
				return err
			}
			path, err := session.manager.Download(cmd.Context(), args[0], destDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Destination directory (defaults to download_dir from config)")
	return cmd
}
