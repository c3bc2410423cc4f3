package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Status prints the manager configuration and counter snapshot as JSON.
func (a *App) Status(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	manager := a.newManager(store)
	snapshot := map[string]any{
		"status": manager.Status(),
		"stats":  manager.Stats(),
	}
	if store != nil {
		if count, err := store.CountAlerts(ctx); err == nil {
			snapshot["audit_records"] = count
		}
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
