package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/collector"
)

// Outcomes stored in poll_cycles.outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const (
	// DefaultLimit is used by Recent when limit <= 0.
	DefaultLimit = 50

	// MaxLimit caps Recent.
	MaxLimit = 500

	// PruneEvery is how many recorded cycles pass between prunes.
	PruneEvery = 500

	// timeLayout is fixed-width so started_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000Z"
)

// Entry is one journalled poll cycle.
type Entry struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Outcome       string        `json:"outcome"`
	FailedStep    string        `json:"failed_step,omitempty"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	Error         string        `json:"error,omitempty"`
	MetersWritten int           `json:"meters_written"`
}

// Repository defines the interface for journal operations.
type Repository interface {
	Record(ctx context.Context, result collector.CycleResult) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteRepository stores cycle outcomes in SQLite.
type SQLiteRepository struct {
	db        *sql.DB
	retention time.Duration

	mu       sync.Mutex
	recorded int

	now func() time.Time
}

// NewSQLiteRepository creates a journal repository. A retention of zero
// disables pruning.
func NewSQLiteRepository(db *sql.DB, retention time.Duration) *SQLiteRepository {
	return &SQLiteRepository{
		db:        db,
		retention: retention,
		now:       time.Now,
	}
}

// ObserveCycle records the cycle and prunes periodically.
func (r *SQLiteRepository) ObserveCycle(ctx context.Context, result collector.CycleResult) error {
	if err := r.Record(ctx, result); err != nil {
		return err
	}

	r.mu.Lock()
	r.recorded++
	due := r.recorded%PruneEvery == 0
	r.mu.Unlock()

	if !due || r.retention <= 0 {
		return nil
	}
	if _, err := r.Prune(ctx, r.now().Add(-r.retention)); err != nil {
		return err
	}
	return nil
}

// Record inserts a cycle outcome.
func (r *SQLiteRepository) Record(ctx context.Context, result collector.CycleResult) error {
	outcome := OutcomeSuccess
	var errText string
	if result.Err != nil {
		outcome = OutcomeFailure
		errText = result.Err.Error()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO poll_cycles (id, started_at, duration_ms, outcome, failed_step, error_kind, error, meters_written)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.StartedAt.UTC().Format(timeLayout),
		result.Duration.Milliseconds(),
		outcome,
		nullableString(string(result.FailedStep)),
		nullableString(string(result.Kind)),
		nullableString(errText),
		result.MetersWritten,
	)
	if err != nil {
		return fmt.Errorf("inserting poll cycle: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Recent returns the newest cycles first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, outcome, failed_step, error_kind, error, meters_written
		 FROM poll_cycles ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying poll cycles: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var startedAt string
		var durationMS int64
		var failedStep, errorKind, errText sql.NullString

		if err := rows.Scan(&e.ID, &startedAt, &durationMS, &e.Outcome,
			&failedStep, &errorKind, &errText, &e.MetersWritten); err != nil {
			return nil, fmt.Errorf("scanning poll cycle: %w", err)
		}

		t, err := time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing poll cycle timestamp %q: %w", startedAt, err)
		}
		e.StartedAt = t
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.FailedStep = failedStep.String
		e.ErrorKind = errorKind.String
		e.Error = errText.String

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poll cycles: %w", err)
	}

	return entries, nil
}

// Prune deletes cycles that started before the given time and returns the
// number of rows removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM poll_cycles WHERE started_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning poll cycles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned poll cycles: %w", err)
	}
	return n, nil
}
