package backfill

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/augur/internal/engine"
)

type fakeActions struct {
	scored  []string
	settled []string
	failOn  string
}

func (f *fakeActions) UpdateScores(_ context.Context, date time.Time) (*engine.RunSummary, error) {
	day := date.Format("2006-01-02")
	if day == f.failOn {
		return nil, fmt.Errorf("provider outage")
	}
	f.scored = append(f.scored, day)
	return &engine.RunSummary{}, nil
}

func (f *fakeActions) SettleResults(_ context.Context, date time.Time) (*engine.RunSummary, error) {
	f.settled = append(f.settled, date.Format("2006-01-02"))
	return &engine.RunSummary{}, nil
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) OnJobStart(JobSpec)                   { r.events = append(r.events, "start") }
func (r *recordingReporter) OnDateStart(time.Time, int, int)      { r.events = append(r.events, "date") }
func (r *recordingReporter) OnProgress(string, int, int)          { r.events = append(r.events, "progress") }
func (r *recordingReporter) OnJobComplete()                       { r.events = append(r.events, "complete") }
func (r *recordingReporter) OnJobError(error)                     { r.events = append(r.events, "error") }

func dateRangeSpec(start, end string) JobSpec {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return JobSpec{Type: JobTypeDateRange, Sport: "nba", Start: s, End: e}
}

func TestRunnerReplaysEachDate(t *testing.T) {
	actions := &fakeActions{}
	reporter := &recordingReporter{}

	err := NewRunner(actions).Run(context.Background(), dateRangeSpec("2026-01-10", "2026-01-12"), reporter)

	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-10", "2026-01-11", "2026-01-12"}, actions.scored)
	assert.Equal(t, actions.scored, actions.settled, "every rescored date is resettled")
	assert.Equal(t, "complete", reporter.events[len(reporter.events)-1])
}

func TestRunnerSwapsInvertedRange(t *testing.T) {
	actions := &fakeActions{}

	err := NewRunner(actions).Run(context.Background(), dateRangeSpec("2026-01-12", "2026-01-10"), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-10", "2026-01-11", "2026-01-12"}, actions.scored)
}

func TestRunnerStopsOnFailure(t *testing.T) {
	actions := &fakeActions{failOn: "2026-01-11"}
	reporter := &recordingReporter{}

	err := NewRunner(actions).Run(context.Background(), dateRangeSpec("2026-01-10", "2026-01-12"), reporter)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-01-11")
	assert.Equal(t, []string{"2026-01-10"}, actions.scored)
	assert.Contains(t, reporter.events, "error")
}

func TestRunnerDryRunWritesNothing(t *testing.T) {
	actions := &fakeActions{}
	spec := dateRangeSpec("2026-01-10", "2026-01-12")
	spec.DryRun = true

	err := NewRunner(actions).Run(context.Background(), spec, &recordingReporter{})

	require.NoError(t, err)
	assert.Empty(t, actions.scored)
	assert.Empty(t, actions.settled)
}

func TestRunnerHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(&fakeActions{}).Run(ctx, dateRangeSpec("2026-01-10", "2026-01-12"), nil)

	require.ErrorIs(t, err, context.Canceled)
}
