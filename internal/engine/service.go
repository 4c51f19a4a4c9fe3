package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/augur/internal/prediction"
	"github.com/fortuna/augur/internal/provider"
	"github.com/fortuna/augur/internal/settlement"
	"github.com/fortuna/augur/internal/stats"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Actions the engine can run. The REST layer and the scheduler both dispatch
// through RunAction with one of these.
const (
	ActionRefreshStats  = "refresh_stats"
	ActionUpdateScores  = "update_scores"
	ActionSettleResults = "settle_results"
	ActionGenerateProps = "generate_props"
)

// ProviderAPI is the slice of the stats provider the engine consumes.
type ProviderAPI interface {
	Schedule(ctx context.Context, date time.Time) ([]provider.ScheduleGame, error)
	SeasonAverages(ctx context.Context, season int) ([]provider.SeasonAverageRow, error)
	GameLogs(ctx context.Context, date time.Time) ([]provider.GameLog, error)
	ActiveRoster(ctx context.Context) ([]provider.RosterEntry, error)
	TeamSeasonStats(ctx context.Context, season int) ([]provider.TeamSeasonRow, error)
}

// InjurySource supplies the daily injury report.
type InjurySource interface {
	Fetch(ctx context.Context) (provider.InjuryReport, error)
}

// GameStore is the games table.
type GameStore interface {
	GetByID(ctx context.Context, gameID int64) (*store.Game, error)
	GetByDate(ctx context.Context, date time.Time) ([]*store.Game, error)
	GetFinalByDate(ctx context.Context, date time.Time) ([]*store.Game, error)
	TeamPlayedOn(ctx context.Context, team string, date time.Time) (bool, error)
	Upsert(ctx context.Context, game *store.Game) error
	SetResult(ctx context.Context, gameID int64, homeScore, awayScore int32, winner string) error
}

// StatLineStore is the player stat line table.
type StatLineStore interface {
	GetAll(ctx context.Context) ([]*store.PlayerStatLine, error)
	Upsert(ctx context.Context, line *store.PlayerStatLine) error
}

// TeamStore is the team context table.
type TeamStore interface {
	GetAll(ctx context.Context) ([]*store.TeamStatLine, error)
	Upsert(ctx context.Context, line *store.TeamStatLine) error
}

// PropStore is the prop predictions table.
type PropStore interface {
	ReplaceForDate(ctx context.Context, date time.Time, props []*store.PropPrediction) error
	GetByDate(ctx context.Context, date time.Time) ([]*store.PropPrediction, error)
}

// BoxScoreStore is the final box score table.
type BoxScoreStore interface {
	Upsert(ctx context.Context, box *store.PlayerBoxScore) error
}

// RunStore is the run ledger.
type RunStore interface {
	Begin(ctx context.Context, date time.Time, action string) (string, error)
	Complete(ctx context.Context, runID string, counts repository.Counts) error
	Fail(ctx context.Context, runID string, runErr error) error
}

// Settler confirms game winners.
type Settler interface {
	SettleGame(ctx context.Context, game *store.Game) (settlement.Result, error)
	Reconfirm(ctx context.Context, gameID int64) (settlement.Result, error)
	Revoke(ctx context.Context, gameID int64) error
}

// EventSink receives engine lifecycle events. Publishing is best effort: a
// sink failure is logged, never fatal to the run.
type EventSink interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// BoardCache holds the generated prop board for fast reads. Writes are best
// effort; the database row set is always the source of truth.
type BoardCache interface {
	SetPropBoard(ctx context.Context, date time.Time, props []*store.PropPrediction) error
	InvalidatePropBoard(ctx context.Context, date time.Time) error
}

// Config holds the engine's tunables.
type Config struct {
	Sport         string
	Season        int
	LookbackDays  int           // game-log window fetched during a stats refresh
	FanOutWorkers int           // concurrent per-day game-log fetches
	RunTimeout    time.Duration // hard ceiling on any single run
}

// Service orchestrates the refresh, scoring, settlement, and prop generation
// pipelines. Every run is recorded in the run ledger regardless of outcome.
type Service struct {
	cfg      Config
	api      ProviderAPI
	injuries InjurySource
	games    GameStore
	lines    StatLineStore
	teams    TeamStore
	props    PropStore
	boxes    BoxScoreStore
	runs     RunStore
	settler  Settler
	events   EventSink
	board    BoardCache

	model         *prediction.Model
	contextParams stats.ContextParams
}

// NewService wires an engine service.
func NewService(
	cfg Config,
	api ProviderAPI,
	injuries InjurySource,
	games GameStore,
	lines StatLineStore,
	teams TeamStore,
	props PropStore,
	boxes BoxScoreStore,
	runs RunStore,
	settler Settler,
	events EventSink,
	board BoardCache,
) *Service {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 21
	}
	if cfg.FanOutWorkers <= 0 {
		cfg.FanOutWorkers = 4
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	return &Service{
		cfg:           cfg,
		api:           api,
		injuries:      injuries,
		games:         games,
		lines:         lines,
		teams:         teams,
		props:         props,
		boxes:         boxes,
		runs:          runs,
		settler:       settler,
		events:        events,
		board:         board,
		model:         prediction.NewModel(prediction.DefaultParams()),
		contextParams: stats.DefaultContextParams(),
	}
}

// RunSummary reports what one run did.
type RunSummary struct {
	RunID  string              `json:"run_id"`
	Action string              `json:"action"`
	Date   string              `json:"date"`
	Counts repository.Counts   `json:"counts"`
	Games  []settlement.Result `json:"games,omitempty"`
}

// RunAction dispatches one engine action for a date. The date is always
// explicit; callers decide what "today" means, usually in the league's
// home timezone.
func (s *Service) RunAction(ctx context.Context, action string, date time.Time) (*RunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	switch action {
	case ActionRefreshStats:
		return s.RefreshStats(ctx, date)
	case ActionUpdateScores:
		return s.UpdateScores(ctx, date)
	case ActionSettleResults:
		return s.SettleResults(ctx, date)
	case ActionGenerateProps:
		return s.GenerateProps(ctx, date)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// run wraps a pipeline in ledger bookkeeping: begin, execute, complete or
// fail. A ledger write failure is logged but never masks the run's outcome.
func (s *Service) run(ctx context.Context, action string, date time.Time,
	fn func(ctx context.Context, summary *RunSummary) error) (*RunSummary, error) {

	runID, err := s.runs.Begin(ctx, date, action)
	if err != nil {
		return nil, fmt.Errorf("starting run ledger: %w", err)
	}

	summary := &RunSummary{
		RunID:  runID,
		Action: action,
		Date:   date.Format("2006-01-02"),
	}

	log.Printf("[engine] Run %s started: %s for %s", runID, action, summary.Date)

	if err := fn(ctx, summary); err != nil {
		if ledgerErr := s.runs.Fail(ctx, runID, err); ledgerErr != nil {
			log.Printf("[engine] ❌ Failed to record run failure: %v", ledgerErr)
		}
		log.Printf("[engine] ❌ Run %s failed: %v", runID, err)
		return nil, err
	}

	if err := s.runs.Complete(ctx, runID, summary.Counts); err != nil {
		log.Printf("[engine] ❌ Failed to record run completion: %v", err)
	}

	log.Printf("[engine] ✓ Run %s complete: %d games, %d players, %d teams, %d props",
		runID, summary.Counts.Games, summary.Counts.Players, summary.Counts.Teams, summary.Counts.Props)

	return summary, nil
}

// publish sends an event to the sink, if one is configured.
func (s *Service) publish(ctx context.Context, event string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event, payload); err != nil {
		log.Printf("[engine] ⊘ Event %s not published: %v", event, err)
	}
}
