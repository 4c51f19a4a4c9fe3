package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/fortuna/augur/internal/engine"
)

// Orchestrator drives the engine on a schedule: a daily stats refresh and
// prop generation pass, plus a frequent score poll that settles finished
// games as they come in.
type Orchestrator struct {
	engine *engine.Service
	config *Config
	cancel context.CancelFunc

	scoresCtx    context.Context
	scoresCancel context.CancelFunc
	dailyCtx     context.Context
	dailyCancel  context.CancelFunc
}

// Config holds scheduler configuration
type Config struct {
	ScorePollInterval time.Duration // Default: 2m
	DailyRefreshHour  int           // Default: 9 (after overnight stats finalize)
	EnableScorePoll   bool          // Default: true
	EnableDailyRun    bool          // Default: true
	MaxRetries        int           // Default: 3
	RetryDelay        time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		ScorePollInterval: 2 * time.Minute,
		DailyRefreshHour:  9,
		EnableScorePoll:   true,
		EnableDailyRun:    true,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(engineSvc *engine.Service, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		engine: engineSvc,
		config: config,
	}
}

// Start begins all scheduled tasks and blocks until the context is done.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║      Augur Scheduler Orchestrator     ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Score polling: %v (interval: %v)", o.config.EnableScorePoll, o.config.ScorePollInterval)
	log.Printf("Daily refresh: %v (at %02d:00)", o.config.EnableDailyRun, o.config.DailyRefreshHour)
	log.Println()

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableScorePoll {
		o.scoresCtx, o.scoresCancel = context.WithCancel(ctx)
		go o.runScorePolling(o.scoresCtx)
	}

	if o.config.EnableDailyRun {
		o.dailyCtx, o.dailyCancel = context.WithCancel(ctx)
		go o.runDailyRefresh(o.dailyCtx)
	}

	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

// runScorePolling polls scores and settles whatever finished.
func (o *Orchestrator) runScorePolling(ctx context.Context) {
	log.Printf("→ Score polling started (interval: %v)", o.config.ScorePollInterval)

	ticker := time.NewTicker(o.config.ScorePollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	maxConsecutiveErrors := 5

	// Run immediately on start
	o.pollScoresWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Score polling stopped")
			return
		case <-ticker.C:
			o.pollScoresWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)
		}
	}
}

// pollScoresWithRetry runs the score and settlement pass with retry logic.
func (o *Orchestrator) pollScoresWithRetry(ctx context.Context, consecutiveErrors *int, maxConsecutiveErrors int) {
	today := time.Now().UTC()

	var err error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		err = o.scoreAndSettle(ctx, today)
		if err == nil {
			*consecutiveErrors = 0
			return
		}

		log.Printf("  ⚠️  Polling attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	*consecutiveErrors++
	log.Printf("  ❌ All %d retry attempts failed. Consecutive errors: %d/%d",
		o.config.MaxRetries, *consecutiveErrors, maxConsecutiveErrors)

	// If too many consecutive errors, back off before the next tick.
	if *consecutiveErrors >= maxConsecutiveErrors {
		log.Printf("  ⚠️  High error rate detected. Backing off...")
		select {
		case <-ctx.Done():
		case <-time.After(20 * time.Second):
		}
	}
}

func (o *Orchestrator) scoreAndSettle(ctx context.Context, date time.Time) error {
	if _, err := o.engine.UpdateScores(ctx, date); err != nil {
		return err
	}
	_, err := o.engine.SettleResults(ctx, date)
	return err
}

// runDailyRefresh refreshes stats and regenerates the prop board once a day.
func (o *Orchestrator) runDailyRefresh(ctx context.Context) {
	log.Printf("→ Daily refresh scheduler started (runs at %02d:00 daily)", o.config.DailyRefreshHour)

	for {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyRefreshHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		log.Printf("  Next daily refresh: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		select {
		case <-ctx.Done():
			log.Println("→ Daily refresh scheduler stopped")
			return
		case <-time.After(waitDuration):
			log.Println()
			log.Println("═══ Daily Refresh Starting ═══")
			o.runDailyRefreshTask(ctx)
			log.Println("═══ Daily Refresh Complete ═══")
			log.Println()
		}
	}
}

// runDailyRefreshTask rebuilds stat lines and regenerates today's board.
func (o *Orchestrator) runDailyRefreshTask(ctx context.Context) {
	startTime := time.Now()
	today := time.Now().UTC()

	if _, err := o.engine.RefreshStats(ctx, today); err != nil {
		log.Printf("❌ Daily stats refresh failed: %v", err)
		return
	}

	if _, err := o.engine.GenerateProps(ctx, today); err != nil {
		log.Printf("❌ Prop generation failed: %v", err)
		return
	}

	log.Printf("✓ Daily refresh complete in %v", time.Since(startTime).Round(time.Second))
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")

	if o.scoresCancel != nil {
		o.scoresCancel()
	}
	if o.dailyCancel != nil {
		o.dailyCancel()
	}
	if o.cancel != nil {
		o.cancel()
	}

	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"score_poll_enabled":  o.config.EnableScorePoll,
		"score_poll_interval": o.config.ScorePollInterval.String(),
		"daily_run_enabled":   o.config.EnableDailyRun,
		"daily_refresh_hour":  o.config.DailyRefreshHour,
	}
}
