package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pipeline-alerts/internal/app"
)

var (
	purgeOlderThan time.Duration
	purgeDryRun    bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit records older than a duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeOlderThan <= 0 {
			return fmt.Errorf("--older-than must be greater than zero")
		}

		opts := app.PurgeOptions{
			OlderThan: purgeOlderThan,
			DryRun:    purgeDryRun,
		}
		return getApp().Purge(cmd.Context(), opts)
	},
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 30*24*time.Hour, "Delete records older than this duration")
	purgeCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "Report what would be deleted without deleting")
}
