package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// PurgeOptions configure the purge command.
type PurgeOptions struct {
	OlderThan time.Duration
	DryRun    bool
}

// Purge removes audit records older than the given age.
func (a *App) Purge(ctx context.Context, opts PurgeOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to purge")
	}
	if closeStore != nil {
		defer closeStore()
	}

	cutoff := time.Now().UTC().Add(-opts.OlderThan)

	if opts.DryRun {
		count, err := store.CountAlerts(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "dry run: %d records total, cutoff %s\n", count, cutoff.Format(time.RFC3339))
		return nil
	}

	deleted, err := store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	a.Logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("purged audit records")
	fmt.Fprintf(os.Stdout, "deleted %d records older than %s\n", deleted, opts.OlderThan)
	return nil
}
