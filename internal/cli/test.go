package cli

import (
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a synthetic alert to verify the pipeline end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Test(cmd.Context())
	},
}
