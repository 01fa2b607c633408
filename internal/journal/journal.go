// -- internal/journal/journal.go --

// Package journal persists navigation runs to Postgres. The journal is
// strictly optional: it only exists when a DSN is configured, and callers
// treat recording failures as log noise, never as navigation failures.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/winpilot-cli/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so tests can mock it.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Journal is a PostgreSQL-backed run log.
type Journal struct {
	pool DBPool
	log  *zap.Logger
}

// New verifies the connection and returns a Journal.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Journal, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("journal: ping database: %w", err)
	}
	return &Journal{
		pool: pool,
		log:  logger.Named("journal"),
	}, nil
}

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS navigation_runs (
    id UUID PRIMARY KEY,
    started_at TIMESTAMPTZ NOT NULL,
    window_title TEXT NOT NULL,
    app_type TEXT NOT NULL,
    path TEXT NOT NULL,
    steps_planned INT NOT NULL,
    steps_executed INT NOT NULL,
    succeeded BOOLEAN NOT NULL,
    change_detected BOOLEAN NOT NULL,
    duration_ms BIGINT NOT NULL,
    failure TEXT NOT NULL DEFAULT ''
);`

// Init creates the runs table when it does not exist yet.
func (j *Journal) Init(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, createRunsTableSQL); err != nil {
		return fmt.Errorf("journal: create navigation_runs: %w", err)
	}
	return nil
}

const insertRunSQL = `
INSERT INTO navigation_runs (id, started_at, window_title, app_type, path, steps_planned, steps_executed, succeeded, change_detected, duration_ms, failure)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

// Record persists one navigation run.
func (j *Journal) Record(ctx context.Context, rec schemas.RunRecord) error {
	id := uuid.NewString()
	_, err := j.pool.Exec(ctx, insertRunSQL,
		id,
		rec.StartedAt.UTC(),
		rec.WindowTitle,
		string(rec.AppType),
		rec.Path,
		rec.StepsPlanned,
		rec.StepsExecuted,
		rec.Succeeded,
		rec.ChangeDetected,
		rec.Duration.Milliseconds(),
		rec.Failure,
	)
	if err != nil {
		return fmt.Errorf("journal: insert run: %w", err)
	}
	j.log.Debug("Navigation run journaled.",
		zap.String("run_id", id),
		zap.String("path", rec.Path),
		zap.Bool("succeeded", rec.Succeeded))
	return nil
}

// Run is one stored navigation run.
type Run struct {
	ID string `json:"id"`
	schemas.RunRecord
}

const recentRunsSQL = `
SELECT id, started_at, window_title, app_type, path, steps_planned, steps_executed, succeeded, change_detected, duration_ms, failure
FROM navigation_runs
ORDER BY started_at DESC
LIMIT $1;`

// defaultRecentLimit bounds history listings when the caller does not.
const defaultRecentLimit = 20

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := j.pool.Query(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			appType    string
			durationMS int64
		)
		err := rows.Scan(
			&r.ID, &r.StartedAt, &r.WindowTitle, &appType, &r.Path,
			&r.StepsPlanned, &r.StepsExecuted, &r.Succeeded, &r.ChangeDetected,
			&durationMS, &r.Failure,
		)
		if err != nil {
			return nil, fmt.Errorf("journal: scan run row: %w", err)
		}
		r.AppType = schemas.ApplicationType(appType)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate runs: %w", err)
	}
	return runs, nil
}
