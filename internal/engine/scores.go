package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fortuna/augur/internal/provider"
	"github.com/fortuna/augur/internal/store"
)

// UpdateScores syncs the day's schedule, scores, and statuses from the
// provider, and captures final box scores once games end. The games table is
// updated here; the settlement ledger is a separate, explicit step.
func (s *Service) UpdateScores(ctx context.Context, date time.Time) (*RunSummary, error) {
	return s.run(ctx, ActionUpdateScores, date, func(ctx context.Context, summary *RunSummary) error {
		schedule, err := s.api.Schedule(ctx, date)
		if err != nil {
			return fmt.Errorf("fetching schedule: %w", err)
		}

		anyFinal := false
		for _, scheduled := range schedule {
			game, err := toGame(scheduled, s.cfg.Sport)
			if err != nil {
				log.Printf("[engine] ⊘ Schedule row for game %d skipped: %v", scheduled.ID, err)
				continue
			}

			if err := s.games.Upsert(ctx, game); err != nil {
				return fmt.Errorf("persisting game %d: %w", game.GameID, err)
			}
			summary.Counts.Games++

			if game.Status == store.StatusFinal && game.HomeScore.Valid && game.AwayScore.Valid {
				anyFinal = true
				winner := game.HomeTeam
				if game.AwayScore.Int32 > game.HomeScore.Int32 {
					winner = game.AwayTeam
				}
				// Ties are left for settlement to reject; don't stamp a winner.
				if game.HomeScore.Int32 == game.AwayScore.Int32 {
					log.Printf("[engine] ⊘ Game %d final with tied score %d-%d, winner not stamped",
						game.GameID, game.HomeScore.Int32, game.AwayScore.Int32)
					continue
				}
				if err := s.games.SetResult(ctx, game.GameID, game.HomeScore.Int32, game.AwayScore.Int32, winner); err != nil {
					return err
				}
			}
		}

		if anyFinal {
			if err := s.captureBoxScores(ctx, date, summary); err != nil {
				return err
			}
		}

		s.publish(ctx, "scores.updated", summary)
		return nil
	})
}

// captureBoxScores persists every player's final line for the day's games.
// These rows are the single source of truth for grading props.
func (s *Service) captureBoxScores(ctx context.Context, date time.Time, summary *RunSummary) error {
	logs, err := s.api.GameLogs(ctx, date)
	if err != nil {
		return fmt.Errorf("fetching box scores: %w", err)
	}

	finals, err := s.games.GetFinalByDate(ctx, date)
	if err != nil {
		return err
	}
	finalIDs := make(map[int64]bool, len(finals))
	for _, game := range finals {
		finalIDs[game.GameID] = true
	}

	for _, entry := range logs {
		if !finalIDs[entry.GameID] {
			continue
		}
		box := &store.PlayerBoxScore{
			GameID:     entry.GameID,
			PlayerID:   entry.PlayerID,
			PlayerName: entry.PlayerName,
			Team:       entry.Team,
			Points:     entry.Points,
			Rebounds:   entry.Rebounds,
			Assists:    entry.Assists,
			Threes:     entry.Threes,
			Steals:     entry.Steals,
			Blocks:     entry.Blocks,
			Turnovers:  entry.Turnovers,
			Minutes:    entry.Minutes,
			DNP:        entry.DNP,
		}
		if err := s.boxes.Upsert(ctx, box); err != nil {
			log.Printf("[engine] ❌ Box score for game %d player %d not persisted: %v",
				entry.GameID, entry.PlayerID, err)
			continue
		}
		summary.Counts.Players++
	}

	return nil
}

// toGame normalizes a provider schedule row into a game record.
func toGame(scheduled provider.ScheduleGame, sport string) (*store.Game, error) {
	gameDate, err := time.Parse("2006-01-02", scheduled.Date)
	if err != nil {
		return nil, fmt.Errorf("unparseable date %q", scheduled.Date)
	}

	game := &store.Game{
		GameID:   scheduled.ID,
		Sport:    sport,
		GameDate: gameDate,
		HomeTeam: scheduled.HomeTeam.Abbreviation,
		AwayTeam: scheduled.AwayTeam.Abbreviation,
		Status:   normalizeStatus(scheduled.Status),
	}

	if scheduled.Tipoff != "" {
		if tipoff, err := time.Parse(time.RFC3339, scheduled.Tipoff); err == nil {
			game.Tipoff = sql.NullTime{Time: tipoff, Valid: true}
		}
	}
	if scheduled.HomeScore != nil {
		game.HomeScore = sql.NullInt32{Int32: int32(*scheduled.HomeScore), Valid: true}
	}
	if scheduled.AwayScore != nil {
		game.AwayScore = sql.NullInt32{Int32: int32(*scheduled.AwayScore), Valid: true}
	}

	return game, nil
}

// normalizeStatus maps the provider's free-form status strings onto the three
// states the engine tracks.
func normalizeStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(status, "final"):
		return store.StatusFinal
	case strings.Contains(status, "qtr"), strings.Contains(status, "quarter"),
		strings.Contains(status, "half"), strings.Contains(status, "ot"),
		strings.Contains(status, "in progress"):
		return store.StatusInProgress
	default:
		return store.StatusScheduled
	}
}
