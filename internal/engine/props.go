package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/augur/internal/prediction"
	"github.com/fortuna/augur/internal/stats"
	"github.com/fortuna/augur/internal/store"
)

// matchup pairs a player's game with their opponent for the night.
type matchup struct {
	game     *store.Game
	opponent string
}

// GenerateProps prices the full prop board for a date and replaces that
// date's rows wholesale. Players without a game, with unknown opponent
// context, or ruled out are skipped; a persistence failure is fatal so a
// half-written board is never left behind.
func (s *Service) GenerateProps(ctx context.Context, date time.Time) (*RunSummary, error) {
	return s.run(ctx, ActionGenerateProps, date, func(ctx context.Context, summary *RunSummary) error {
		lines, err := s.lines.GetAll(ctx)
		if err != nil {
			return err
		}

		teamLines, err := s.teams.GetAll(ctx)
		if err != nil {
			return err
		}
		teamContext := make(map[string]*store.TeamStatLine, len(teamLines))
		for _, team := range teamLines {
			teamContext[team.Team] = team
		}

		games, err := s.games.GetByDate(ctx, date)
		if err != nil {
			return err
		}
		matchups := make(map[string]matchup, len(games)*2)
		for _, game := range games {
			matchups[game.HomeTeam] = matchup{game: game, opponent: game.AwayTeam}
			matchups[game.AwayTeam] = matchup{game: game, opponent: game.HomeTeam}
		}

		var board []*store.PropPrediction
		for _, line := range lines {
			m, playing := matchups[line.Team]
			if !playing {
				continue
			}
			if line.InjuryStatus == "out" {
				log.Printf("[engine] ⊘ %s ruled out, no props generated", line.Name)
				continue
			}

			opponent, ok := teamContext[m.opponent]
			if !ok {
				// No context means no prediction; a guess here would look just
				// as confident as a real one.
				log.Printf("[engine] ⊘ %s skipped: no context for opponent %s", line.Name, m.opponent)
				continue
			}

			backToBack, err := s.games.TeamPlayedOn(ctx, line.Team, date.AddDate(0, 0, -1))
			if err != nil {
				return err
			}

			board = append(board, s.priceBoard(line, m.game, opponent, backToBack, date)...)
		}

		if err := s.props.ReplaceForDate(ctx, date, board); err != nil {
			return fmt.Errorf("replacing prop board: %w", err)
		}
		summary.Counts.Props = len(board)
		summary.Counts.Games = len(games)

		s.cacheBoard(ctx, date, board)
		s.publish(ctx, "props.generated", summary)
		return nil
	})
}

// cacheBoard refreshes the cached board after a successful replace. Best
// effort: on failure the stale entry is dropped so reads fall back to the
// database.
func (s *Service) cacheBoard(ctx context.Context, date time.Time, board []*store.PropPrediction) {
	if s.board == nil {
		return
	}
	if err := s.board.SetPropBoard(ctx, date, board); err != nil {
		log.Printf("[engine] ⊘ Prop board cache not updated: %v", err)
		if err := s.board.InvalidatePropBoard(ctx, date); err != nil {
			log.Printf("[engine] ⊘ Prop board cache not invalidated: %v", err)
		}
	}
}

// priceBoard prices every stat category for one player in one game.
func (s *Service) priceBoard(line *store.PlayerStatLine, game *store.Game,
	opponent *store.TeamStatLine, backToBack bool, date time.Time) []*store.PropPrediction {

	minutesTrend := stats.MinutesTrend(line.Last5Minutes, line.SeasonMinutes, s.contextParams)

	missingData := 0
	if line.SeasonMinutes <= 0 {
		missingData++
	}

	categories := []struct {
		statType string
		windows  func(*store.PlayerStatLine) (last5, last10, season, std float64)
	}{
		{store.StatPoints, func(l *store.PlayerStatLine) (float64, float64, float64, float64) {
			return l.Last5Points, l.Last10Points, l.SeasonPoints, l.StdPoints
		}},
		{store.StatRebounds, func(l *store.PlayerStatLine) (float64, float64, float64, float64) {
			return l.Last5Rebounds, l.Last10Rebounds, l.SeasonRebounds, l.StdRebounds
		}},
		{store.StatAssists, func(l *store.PlayerStatLine) (float64, float64, float64, float64) {
			return l.Last5Assists, l.Last10Assists, l.SeasonAssists, l.StdAssists
		}},
		{store.StatThrees, func(l *store.PlayerStatLine) (float64, float64, float64, float64) {
			return l.Last5Threes, l.Last10Threes, l.SeasonThrees, l.StdThrees
		}},
		{store.StatPRA, func(l *store.PlayerStatLine) (float64, float64, float64, float64) {
			return l.Last5PRA, l.Last10PRA, l.SeasonPRA, l.StdPRA
		}},
	}

	var props []*store.PropPrediction
	for _, category := range categories {
		last5, last10, season, std := category.windows(line)

		pred, err := s.model.Predict(prediction.Input{
			Last5:           last5,
			Last10:          last10,
			Season:          season,
			Std:             std,
			OpponentDefense: opponent.DefensiveTier,
			Pace:            opponent.PaceTier,
			MinutesTrend:    minutesTrend,
			InjuryStatus:    line.InjuryStatus,
			BackToBack:      backToBack,
			Completeness:    line.Completeness,
			MissingData:     missingData,
		})
		if err != nil {
			continue
		}

		props = append(props, &store.PropPrediction{
			PropDate:       date,
			GameID:         game.GameID,
			PlayerID:       line.PlayerID,
			PlayerName:     line.Name,
			Team:           line.Team,
			StatType:       category.statType,
			Line:           pred.Line,
			Side:           pred.Side,
			Probability:    pred.Probability,
			BreakEven:      s.model.Params().BreakEven,
			Edge:           pred.Edge,
			Confidence:     pred.Confidence,
			Recommendation: pred.Recommendation,
			VolatilityTier: pred.VolatilityTier,
			Factors: store.CalibrationFactors{
				Last5Avg:        last5,
				Last10Avg:       last10,
				SeasonAvg:       season,
				StdDev:          std,
				Projected:       pred.Projected,
				BaseProbability: pred.BaseProbability,
				Last5Minutes:    line.Last5Minutes,
				SeasonMinutes:   line.SeasonMinutes,
				MinutesTrend:    minutesTrend,
				DefensiveTier:   opponent.DefensiveTier,
				DefensiveRank:   opponent.DefensiveRank,
				PaceTier:        opponent.PaceTier,
				PaceRating:      opponent.PaceRating,
				BackToBack:      backToBack,
				InjuryStatus:    line.InjuryStatus,
				Completeness:    line.Completeness,
			},
		})
	}

	return props
}
