package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"morph/internal/jobs"
)

var titleCaser = cases.Title(language.English)

// writeJSON renders v as indented JSON on the command's stdout, the shape
// consumed by the --json flag across commands.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// statusLabel renders a status for humans ("pending" -> "Pending").
func statusLabel(status jobs.Status) string {
	if status == "" {
		return "Unknown"
	}
	return titleCaser.String(string(status))
}

func formatFileSize(size int64) string {
	if size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(size))
}

// formatProcessingTime renders server-reported seconds, switching to
// minutes past the one minute mark.
func formatProcessingTime(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds) / 60
	remainder := seconds - float64(minutes*60)
	return fmt.Sprintf("%dm %.1fs", minutes, remainder)
}
