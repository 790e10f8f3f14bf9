package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/cannonbot/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "journal"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)
	if run.Source == "" {
		run.Source = "run"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, label, period_us, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Label, run.Period.Microseconds(), run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Runs returns every run, newest first, with its event count.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs")
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source, r.label, r.period_us, r.started_at, COUNT(e.seq)
		 FROM runs r LEFT JOIN events e ON e.run_id = r.id
		 GROUP BY r.id ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var periodUS int64
		var startedAt string
		if err := rows.Scan(&run.ID, &run.Source, &run.Label, &periodUS, &startedAt, &run.Events); err != nil {
			return nil, err
		}
		run.Period = time.Duration(periodUS) * time.Microsecond
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Events ---

// resourceKey encodes resources so that a single id can be matched with
// LIKE '%,id,%'.
func resourceKey(ids []model.ResourceID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return "," + strings.Join(parts, ",") + ","
}

// Append stores events in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, runID string, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "events", "run_id", runID, "count", len(events))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, tick, clock_us, kind, action, handle, resources, resource_key, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		resources := ev.Resources
		if resources == nil {
			resources = []model.ResourceID{}
		}
		resJSON, err := json.Marshal(resources)
		if err != nil {
			return fmt.Errorf("marshal resources: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, int64(ev.Tick), ev.Clock.Microseconds(), string(ev.Kind), ev.Action, int64(ev.Handle),
			string(resJSON), resourceKey(ev.Resources), ev.Detail, ev.Time.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the most recent events matching filter in chronological
// order.
func (s *SQLiteStore) List(ctx context.Context, filter model.EventFilter) ([]Record, error) {
	filter.Clamp()
	s.logger.Debug("sql", "op", "list", "table", "events", "run_id", filter.RunID, "kind", filter.Kind, "limit", filter.Limit)

	var where []string
	var args []any
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Resource != "" {
		where = append(where, "resource_key LIKE ?")
		args = append(args, "%,"+string(filter.Resource)+",%")
	}
	query := `SELECT seq, run_id, tick, clock_us, kind, action, handle, resources, detail, created_at FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var tick, clockUS, handle int64
		var kind, resJSON, createdAt string
		if err := rows.Scan(&rec.Seq, &rec.RunID, &tick, &clockUS, &kind, &rec.Action, &handle, &resJSON, &rec.Detail, &createdAt); err != nil {
			return nil, err
		}
		rec.Tick = uint64(tick)
		rec.Clock = time.Duration(clockUS) * time.Microsecond
		rec.Kind = model.EventKind(kind)
		rec.Handle = uint64(handle)
		if err := json.Unmarshal([]byte(resJSON), &rec.Resources); err != nil {
			return nil, fmt.Errorf("unmarshal resources: %w", err)
		}
		if len(rec.Resources) == 0 {
			rec.Resources = nil
		}
		rec.Time, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
