package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print manager configuration and statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Status(cmd.Context())
	},
}
