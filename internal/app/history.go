package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// HistoryOptions configure the history command.
type HistoryOptions struct {
	Limit int
}

// History prints recent audit records.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alert history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSeverity\tCategory\tStatus\tComponent\tTitle")

	for _, record := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			record.CreatedAt.UTC().Format(time.RFC3339),
			record.Severity,
			record.Category,
			record.Status,
			record.Component,
			sanitizeInline(record.Title),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
