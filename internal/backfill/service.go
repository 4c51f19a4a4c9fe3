package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// Request represents a backfill invocation request.
type Request struct {
	Sport     string
	StartDate *time.Time
	EndDate   *time.Time
	DryRun    bool
}

// Service coordinates job persistence, execution, and status reporting. One
// job runs at a time; the rest wait in the queue.
type Service struct {
	repo   *Repository
	runner *Runner

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(db *store.Database, actions ActionRunner, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       NewRunner(actions),
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Printf("failed to reset jobs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	if req.Sport == "" {
		req.Sport = "nba"
	}
	if req.StartDate == nil || req.EndDate == nil {
		return nil, fmt.Errorf("date range job requires start_date and end_date")
	}

	start := truncateDate(*req.StartDate)
	end := truncateDate(*req.EndDate)

	job := &Job{
		JobType:       JobTypeDateRange,
		Sport:         req.Sport,
		StartDate:     sql.NullTime{Time: start, Valid: true},
		EndDate:       sql.NullTime{Time: end, Valid: true},
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(enumerateDates(start, end)),
	}

	return s.repo.CreateJob(ctx, job)
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				s.logger.Printf("claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	spec, err := buildSpec(job)
	if err != nil {
		s.logger.Printf("invalid job spec %s: %v", job.JobID, err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	reporter := &jobReporter{
		ctx:    s.ctx,
		repo:   s.repo,
		jobID:  job.JobID,
		total:  job.ProgressTotal,
		logger: s.logger,
	}

	if err := s.runner.Run(s.ctx, spec, reporter); err != nil {
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err)
		return
	}

	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
}

func buildSpec(job *Job) (JobSpec, error) {
	if !job.StartDate.Valid || !job.EndDate.Valid {
		return JobSpec{}, fmt.Errorf("job missing start/end dates")
	}

	return JobSpec{
		Type:  job.JobType,
		Sport: job.Sport,
		Start: job.StartDate.Time,
		End:   job.EndDate.Time,
	}, nil
}

type jobReporter struct {
	ctx    context.Context
	repo   *Repository
	jobID  string
	total  int
	logger *log.Logger
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	if r.total == 0 {
		r.total = len(enumerateDates(spec.Start, spec.End))
	}
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting")
}

func (r *jobReporter) OnDateStart(date time.Time, index int, total int) {
	msg := fmt.Sprintf("Processing %s (%d/%d)", date.Format("Jan 2, 2006"), index+1, total)
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, index, valueOr(total, r.total), msg)
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnJobComplete() {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	r.logger.Printf("job %s: %v", r.jobID, err)
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
