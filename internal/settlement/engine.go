package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fortuna/augur/internal/store"
)

var (
	// ErrTiedScore means a final score came back tied. The sport has no ties,
	// so this is corrupt upstream data; never pick a side from it.
	ErrTiedScore = errors.New("tied final score cannot be settled")

	// ErrNotFinal means settlement was requested for a game that is not final
	// with both scores present.
	ErrNotFinal = errors.New("game is not final with complete scores")
)

// Prop grading outcomes.
const (
	OutcomeWon  = "won"
	OutcomeLost = "lost"
	OutcomePush = "push"
	OutcomeVoid = "void"
)

// WinnerStore is the confirmation ledger.
type WinnerStore interface {
	Get(ctx context.Context, gameID int64, sport string) (*store.ConfirmedWinner, error)
	Upsert(ctx context.Context, w *store.ConfirmedWinner) error
	Revoke(ctx context.Context, gameID int64, sport string) error
}

// GameStore reads game records.
type GameStore interface {
	GetByID(ctx context.Context, gameID int64) (*store.Game, error)
}

// BoxScoreStore reads final player lines for grading.
type BoxScoreStore interface {
	GetByGame(ctx context.Context, gameID int64) ([]*store.PlayerBoxScore, error)
}

// Engine derives and records confirmed game winners, and grades props
// against final box scores. It writes only the confirmation ledger; the game
// record itself is maintained by the score refresh path.
type Engine struct {
	games   GameStore
	winners WinnerStore
	boxes   BoxScoreStore
	sport   string
}

// NewEngine creates a settlement engine for one sport.
func NewEngine(games GameStore, winners WinnerStore, boxes BoxScoreStore, sport string) *Engine {
	return &Engine{games: games, winners: winners, boxes: boxes, sport: sport}
}

// Result describes what happened to one game during settlement.
type Result struct {
	GameID  int64  `json:"game_id"`
	Winner  string `json:"winner,omitempty"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// SettleGame confirms the winner of one final game. Re-running is safe: an
// existing live confirmation is left untouched, and a revoked one is never
// silently restored; only Reconfirm can do that.
func (e *Engine) SettleGame(ctx context.Context, game *store.Game) (Result, error) {
	if game.Status != store.StatusFinal || !game.HomeScore.Valid || !game.AwayScore.Valid {
		return Result{GameID: game.GameID, Skipped: true, Reason: "not final"}, nil
	}

	existing, err := e.winners.Get(ctx, game.GameID, e.sport)
	if err != nil {
		return Result{}, fmt.Errorf("checking existing confirmation: %w", err)
	}
	if existing != nil {
		if existing.Revoked {
			log.Printf("[settlement] ⊘ Game %d confirmation was revoked, awaiting explicit reconfirm", game.GameID)
			return Result{GameID: game.GameID, Skipped: true, Reason: "confirmation revoked"}, nil
		}
		return Result{GameID: game.GameID, Winner: existing.Winner, Skipped: true, Reason: "already confirmed"}, nil
	}

	winner, err := deriveWinner(game)
	if err != nil {
		return Result{}, err
	}

	if err := e.confirm(ctx, game, winner, store.SourceAutomatic); err != nil {
		return Result{}, err
	}

	log.Printf("[settlement] ✓ Game %d confirmed: %s over %s", game.GameID, winner, loser(game, winner))
	return Result{GameID: game.GameID, Winner: winner}, nil
}

// Reconfirm re-derives a game's winner on explicit request, clearing any
// revocation. This is the only path that touches a revoked confirmation.
func (e *Engine) Reconfirm(ctx context.Context, gameID int64) (Result, error) {
	game, err := e.games.GetByID(ctx, gameID)
	if err != nil {
		return Result{}, err
	}

	if game.Status != store.StatusFinal || !game.HomeScore.Valid || !game.AwayScore.Valid {
		return Result{}, fmt.Errorf("%w: game %d", ErrNotFinal, gameID)
	}

	winner, err := deriveWinner(game)
	if err != nil {
		return Result{}, err
	}

	if err := e.confirm(ctx, game, winner, store.SourceManual); err != nil {
		return Result{}, err
	}

	log.Printf("[settlement] ✓ Game %d reconfirmed: %s", gameID, winner)
	return Result{GameID: gameID, Winner: winner}, nil
}

// Revoke marks a game's confirmation as revoked.
func (e *Engine) Revoke(ctx context.Context, gameID int64) error {
	if err := e.winners.Revoke(ctx, gameID, e.sport); err != nil {
		return err
	}
	log.Printf("[settlement] ⊘ Game %d confirmation revoked", gameID)
	return nil
}

func (e *Engine) confirm(ctx context.Context, game *store.Game, winner, source string) error {
	confirmation := &store.ConfirmedWinner{
		GameID:    game.GameID,
		Sport:     e.sport,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		HomeScore: int(game.HomeScore.Int32),
		AwayScore: int(game.AwayScore.Int32),
		Winner:    winner,
		Source:    source,
	}
	if err := e.winners.Upsert(ctx, confirmation); err != nil {
		return fmt.Errorf("recording confirmation for game %d: %w", game.GameID, err)
	}
	return nil
}

// GradeProps grades every prop for a game against its final box scores. A
// player with no box score row, or a DNP, voids the prop.
func (e *Engine) GradeProps(ctx context.Context, gameID int64, props []*store.PropPrediction) (map[int64]string, error) {
	boxes, err := e.boxes.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading box scores for game %d: %w", gameID, err)
	}

	byPlayer := make(map[int64]*store.PlayerBoxScore, len(boxes))
	for _, box := range boxes {
		byPlayer[box.PlayerID] = box
	}

	outcomes := make(map[int64]string, len(props))
	for _, prop := range props {
		outcome, err := GradeProp(prop, byPlayer[prop.PlayerID])
		if err != nil {
			return nil, err
		}
		outcomes[prop.ID] = outcome
	}

	return outcomes, nil
}

// GradeProp grades a single prop against a player's final line.
func GradeProp(prop *store.PropPrediction, box *store.PlayerBoxScore) (string, error) {
	if box == nil || box.DNP {
		return OutcomeVoid, nil
	}

	actual, err := statValue(prop.StatType, box)
	if err != nil {
		return "", err
	}

	if actual == prop.Line {
		return OutcomePush, nil
	}

	over := actual > prop.Line
	if (prop.Side == "over") == over {
		return OutcomeWon, nil
	}
	return OutcomeLost, nil
}

func statValue(statType string, box *store.PlayerBoxScore) (float64, error) {
	switch statType {
	case store.StatPoints:
		return float64(box.Points), nil
	case store.StatRebounds:
		return float64(box.Rebounds), nil
	case store.StatAssists:
		return float64(box.Assists), nil
	case store.StatThrees:
		return float64(box.Threes), nil
	case store.StatPRA:
		return float64(box.Points + box.Rebounds + box.Assists), nil
	default:
		return 0, fmt.Errorf("unknown stat type %q", statType)
	}
}

func deriveWinner(game *store.Game) (string, error) {
	home, away := game.HomeScore.Int32, game.AwayScore.Int32
	if home == away {
		return "", fmt.Errorf("%w: game %d finished %d-%d", ErrTiedScore, game.GameID, home, away)
	}
	if home > away {
		return game.HomeTeam, nil
	}
	return game.AwayTeam, nil
}

func loser(game *store.Game, winner string) string {
	if winner == game.HomeTeam {
		return game.AwayTeam
	}
	return game.HomeTeam
}
