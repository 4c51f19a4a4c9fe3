package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/store"
	"github.com/google/uuid"
)

// RunRepository handles the run ledger. Rows are appended and updated, never
// deleted; failures in one run must not block the next.
type RunRepository struct {
	db *store.Database
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *store.Database) *RunRepository {
	return &RunRepository{db: db}
}

// Begin appends a new run row in the running state and returns its ID.
func (r *RunRepository) Begin(ctx context.Context, date time.Time, action string) (string, error) {
	runID := uuid.NewString()

	query := `
		INSERT INTO refresh_runs (run_id, run_date, action, status)
		VALUES ($1, $2, $3, 'running')
	`

	if _, err := r.db.DB().ExecContext(ctx, query, runID, dateOnly(date), action); err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}

	return runID, nil
}

// Counts holds the per-run processing totals.
type Counts struct {
	Games   int
	Players int
	Teams   int
	Props   int
}

// Complete marks a run as finished successfully with its counts.
func (r *RunRepository) Complete(ctx context.Context, runID string, counts Counts) error {
	query := `
		UPDATE refresh_runs
		SET status = 'complete', games_processed = $2, players_processed = $3,
			teams_processed = $4, props_generated = $5, finished_at = NOW()
		WHERE run_id = $1
	`

	if _, err := r.db.DB().ExecContext(ctx, query, runID,
		counts.Games, counts.Players, counts.Teams, counts.Props); err != nil {
		return fmt.Errorf("recording run completion: %w", err)
	}

	return nil
}

// Fail marks a run as errored with a message.
func (r *RunRepository) Fail(ctx context.Context, runID string, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	query := `
		UPDATE refresh_runs
		SET status = 'error', error_message = $2, finished_at = NOW()
		WHERE run_id = $1
	`

	if _, err := r.db.DB().ExecContext(ctx, query, runID, message); err != nil {
		return fmt.Errorf("recording run failure: %w", err)
	}

	return nil
}

// ListRecent returns the most recent runs.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*store.RefreshRun, error) {
	query := `
		SELECT run_id, run_date, action, games_processed, players_processed,
			teams_processed, props_generated, status, error_message, started_at, finished_at
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

func (r *RunRepository) scanRuns(rows *sql.Rows) ([]*store.RefreshRun, error) {
	var runs []*store.RefreshRun
	for rows.Next() {
		run := &store.RefreshRun{}
		err := rows.Scan(
			&run.RunID, &run.RunDate, &run.Action, &run.GamesProcessed, &run.PlayersProcessed,
			&run.TeamsProcessed, &run.PropsGenerated, &run.Status, &run.ErrorMessage,
			&run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
