package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipeline-alerts/internal/alert"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertSQL = `INSERT INTO alert_log (
        title,
        severity,
        category,
        component,
        status,
        metadata
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, title, severity, category, component, status, metadata, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        title,
        severity,
        category,
        component,
        status,
        metadata,
        created_at
    FROM alert_log
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alert_log WHERE created_at < $1;`

	countAlertsSQL = `SELECT COUNT(*) FROM alert_log;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// AlertLog defines operations for alert auditing.
type AlertLog interface {
	InsertAlert(ctx context.Context, record AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error)
	CountAlerts(ctx context.Context) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store provides pgx-backed access to the alert audit log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Record implements the manager's Recorder hook by translating a processed
// alert into an audit row.
func (s *Store) Record(ctx context.Context, a *alert.Alert, status alert.Status) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal alert metadata: %w", err)
	}

	_, err = s.InsertAlert(ctx, AlertRecord{
		Title:     a.Title,
		Severity:  a.Severity.String(),
		Category:  string(a.Category),
		Component: a.Component,
		Status:    string(status),
		Metadata:  metadata,
	})
	return err
}

// InsertAlert persists one audit row and returns it with generated fields.
func (s *Store) InsertAlert(ctx context.Context, record AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		record.Title,
		record.Severity,
		record.Category,
		record.Component,
		record.Status,
		[]byte(record.Metadata),
	)

	stored, err := scanAlertRecord(row)
	if err != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", err)
	}
	return stored, nil
}

// ListRecentAlerts returns the newest audit rows first.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	records := make([]AlertRecord, 0)
	for rows.Next() {
		record, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// DeleteAlertsBefore removes audit rows older than the cutoff and reports
// how many were deleted.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before %s: %w", olderThan, execErr)
	}
	return tag.RowsAffected(), nil
}

// CountAlerts returns the total number of audit rows.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, countAlertsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return count, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func scanAlertRecord(row pgx.Row) (AlertRecord, error) {
	var record AlertRecord
	var component *string
	var metadata []byte

	if err := row.Scan(
		&record.ID,
		&record.Title,
		&record.Severity,
		&record.Category,
		&component,
		&record.Status,
		&metadata,
		&record.CreatedAt,
	); err != nil {
		return AlertRecord{}, fmt.Errorf("scan alert record: %w", err)
	}

	if component != nil {
		record.Component = *component
	}
	record.Metadata = json.RawMessage(metadata)
	return record, nil
}

var (
	_ AlertLog       = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
