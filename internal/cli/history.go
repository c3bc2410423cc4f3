package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipeline-alerts/internal/app"
)

var (
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recent processed alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.HistoryOptions{
			Limit: historyLimit,
		}

		return getApp().History(cmd.Context(), opts)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of alerts to display")
}
