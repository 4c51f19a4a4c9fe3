package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/engine"
)

// ActionRunner is the slice of the engine a backfill replays. For each date
// it re-pulls scores and box scores, then re-derives settlement.
type ActionRunner interface {
	UpdateScores(ctx context.Context, date time.Time) (*engine.RunSummary, error)
	SettleResults(ctx context.Context, date time.Time) (*engine.RunSummary, error)
}

// Runner executes backfill specs against the engine.
type Runner struct {
	actions ActionRunner
}

// NewRunner constructs a runner.
func NewRunner(actions ActionRunner) *Runner {
	return &Runner{actions: actions}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter != nil {
		reporter.OnJobStart(spec)
	}

	if spec.DryRun {
		if reporter != nil {
			reporter.OnProgress("Dry-run mode: no data will be written", 0, 0)
			reporter.OnJobComplete()
		}
		return nil
	}

	if spec.Type != JobTypeDateRange {
		return fmt.Errorf("unsupported job type %s", spec.Type)
	}

	dates := enumerateDates(spec.Start, spec.End)
	if len(dates) == 0 {
		if reporter != nil {
			reporter.OnProgress("No dates to process", 0, 0)
			reporter.OnJobComplete()
		}
		return nil
	}

	total := len(dates)
	for idx, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reporter != nil {
			reporter.OnDateStart(date, idx, total)
		}

		if _, err := r.actions.UpdateScores(ctx, date); err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return fmt.Errorf("rescoring %s: %w", date.Format("2006-01-02"), err)
		}
		if _, err := r.actions.SettleResults(ctx, date); err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return fmt.Errorf("resettling %s: %w", date.Format("2006-01-02"), err)
		}

		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Processed %s", date.Format("Jan 2, 2006")), idx+1, total)
		}
	}

	if reporter != nil {
		reporter.OnJobComplete()
	}

	return nil
}

func enumerateDates(start, end time.Time) []time.Time {
	if end.Before(start) {
		start, end = end, start
	}

	var dates []time.Time
	current := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	final := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	for !current.After(final) {
		dates = append(dates, current)
		current = current.AddDate(0, 0, 1)
	}

	return dates
}
