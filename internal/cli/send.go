package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"pipeline-alerts/internal/app"
)

var (
	sendTitle     string
	sendMessage   string
	sendSeverity  string
	sendCategory  string
	sendComponent string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch a single alert through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendTitle == "" || sendMessage == "" {
			return errors.New("--title and --message are required")
		}

		opts := app.SendOptions{
			Title:     sendTitle,
			Message:   sendMessage,
			Severity:  sendSeverity,
			Category:  sendCategory,
			Component: sendComponent,
		}
		return getApp().Send(cmd.Context(), opts)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTitle, "title", "", "Alert title")
	sendCmd.Flags().StringVar(&sendMessage, "message", "", "Alert message body")
	sendCmd.Flags().StringVar(&sendSeverity, "severity", "medium", "Severity: critical, high, medium, low, info")
	sendCmd.Flags().StringVar(&sendCategory, "category", "general", "Category: trading_errors, system_health, data_pipeline, security, general")
	sendCmd.Flags().StringVar(&sendComponent, "component", "", "Origin component identifier")
}
