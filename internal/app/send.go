package app

import (
	"context"
	"fmt"
	"os"

	"pipeline-alerts/internal/alert"
)

// SendOptions hold parameters for the ad-hoc send command.
type SendOptions struct {
	Title     string
	Message   string
	Severity  string
	Category  string
	Component string
}

// Send dispatches a single alert from the command line and prints the
// terminal status.
func (a *App) Send(ctx context.Context, opts SendOptions) error {
	severity, err := alert.ParseSeverity(opts.Severity)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	manager := a.newManager(store)
	status, err := manager.Send(ctx, opts.Title, opts.Message, severity, alert.Category(opts.Category), opts.Component, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "alert processed: %s\n", status)
	if status == alert.StatusFailed && !manager.ChannelAvailable() {
		fmt.Fprintln(os.Stdout, "hint: delivery channel unavailable; check email configuration")
	}
	return nil
}

// Test runs the pipeline self-test and reports the result via exit status.
func (a *App) Test(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	manager := a.newManager(store)
	if !manager.SelfTest(ctx) {
		return fmt.Errorf("alert pipeline self-test failed")
	}

	fmt.Fprintln(os.Stdout, "alert pipeline self-test passed")
	return nil
}
