package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"annealer_control/internal/models"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

var _ RunRepo = (*RunSQLite)(nil)

const (
	insertRunSQL = `
		INSERT INTO runs (id, process_path, description, started_at)
		VALUES (?, ?, ?, ?)
	`
	finishRunSQL = `
		UPDATE runs SET ended_at = ?, final_status = ? WHERE id = ?
	`
	selectRunsSQL = `
		SELECT id, process_path, description, started_at, ended_at, final_status
		FROM runs ORDER BY started_at DESC LIMIT ?
	`
)

// Create records the beginning of a run.
func (r *RunSQLite) Create(ctx context.Context, run models.Run) error {
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertRunSQL,
		run.RunID,
		run.ProcessPath,
		run.Description,
		started.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %q: %w", run.RunID, err)
	}
	return nil
}

// Finish stamps a run with its terminal status.
func (r *RunSQLite) Finish(ctx context.Context, runID, finalStatus string, endedAt time.Time) error {
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, finishRunSQL,
		endedAt.UTC().Format(sqliteTimeLayout),
		finalStatus,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %q: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %q: no such run", runID)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunSQLite) List(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, selectRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Run, 0, limit)
	for rows.Next() {
		var (
			run     models.Run
			path    sql.NullString
			desc    sql.NullString
			endedAt sql.NullTime
			status  sql.NullString
		)
		if err := rows.Scan(&run.RunID, &path, &desc, &run.StartedAt, &endedAt, &status); err != nil {
			return nil, err
		}
		run.ProcessPath = path.String
		run.Description = desc.String
		run.StartedAt = run.StartedAt.UTC()
		if endedAt.Valid {
			run.EndedAt = endedAt.Time.UTC()
		}
		run.FinalStatus = status.String
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
