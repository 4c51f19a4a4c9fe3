package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/settlement"
)

// SettleResults confirms winners for every final game on a date. Per-game
// invariant failures (a tied score, for one) are collected rather than
// aborting the run, so one corrupt game cannot block the rest of the slate.
func (s *Service) SettleResults(ctx context.Context, date time.Time) (*RunSummary, error) {
	return s.run(ctx, ActionSettleResults, date, func(ctx context.Context, summary *RunSummary) error {
		finals, err := s.games.GetFinalByDate(ctx, date)
		if err != nil {
			return err
		}

		var settleErrs []error
		for _, game := range finals {
			result, err := s.settler.SettleGame(ctx, game)
			if err != nil {
				settleErrs = append(settleErrs, err)
				continue
			}
			summary.Games = append(summary.Games, result)
			if !result.Skipped {
				summary.Counts.Games++
			}
		}

		if len(settleErrs) > 0 {
			return fmt.Errorf("settled %d of %d games: %w", summary.Counts.Games, len(finals), errors.Join(settleErrs...))
		}

		s.publish(ctx, "results.settled", summary)
		return nil
	})
}

// ReconfirmGame re-derives one game's winner on explicit operator request.
func (s *Service) ReconfirmGame(ctx context.Context, gameID int64) (settlement.Result, error) {
	result, err := s.settler.Reconfirm(ctx, gameID)
	if err != nil {
		return settlement.Result{}, err
	}
	s.publish(ctx, "result.reconfirmed", result)
	return result, nil
}

// RevokeGame marks one game's confirmation as revoked.
func (s *Service) RevokeGame(ctx context.Context, gameID int64) error {
	if err := s.settler.Revoke(ctx, gameID); err != nil {
		return err
	}
	s.publish(ctx, "result.revoked", map[string]int64{"game_id": gameID})
	return nil
}
