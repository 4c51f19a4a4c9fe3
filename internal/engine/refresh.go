package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/augur/internal/identity"
	"github.com/fortuna/augur/internal/provider"
	"github.com/fortuna/augur/internal/stats"
	"github.com/fortuna/augur/internal/store"
)

// RefreshStats rebuilds team context and every validated player's rolling
// stat line from the provider. Per-record trouble (a failed validation, one
// day's missing logs, a single row that will not persist) is logged and
// skipped; the run keeps going with what it has.
func (s *Service) RefreshStats(ctx context.Context, date time.Time) (*RunSummary, error) {
	return s.run(ctx, ActionRefreshStats, date, func(ctx context.Context, summary *RunSummary) error {
		roster, err := s.api.ActiveRoster(ctx)
		if err != nil {
			return fmt.Errorf("fetching active roster: %w", err)
		}
		rosterByID := make(map[int64]provider.RosterEntry, len(roster))
		rosterSet := make(identity.RosterSet, len(roster))
		for _, entry := range roster {
			rosterByID[entry.ID] = entry
			rosterSet[entry.ID] = true
		}

		// The injury report is best effort: without it players just lose the
		// injury-known share of their completeness score.
		injuries, err := s.injuries.Fetch(ctx)
		if err != nil {
			log.Printf("[engine] ⊘ Injury report unavailable, proceeding without: %v", err)
			injuries = nil
		}

		if err := s.refreshTeamContext(ctx, summary); err != nil {
			return err
		}

		seasonRows, err := s.api.SeasonAverages(ctx, s.cfg.Season)
		if err != nil {
			return fmt.Errorf("fetching season averages: %w", err)
		}

		logsByPlayer, err := s.fetchGameLogs(ctx, date)
		if err != nil {
			return err
		}

		validator := identity.NewValidator(rosterSet)
		now := time.Now().UTC()

		for _, row := range seasonRows {
			playerID, err := row.PlayerID.Int64()
			if err != nil {
				log.Printf("[engine] ⊘ Season row with unusable player id %q skipped", row.PlayerID.String())
				continue
			}

			entry := rosterByID[playerID]
			samples := toSamples(logsByPlayer[playerID])

			name, err := validator.Validate(identity.Player{
				ID:        playerID,
				FirstName: entry.FirstName,
				LastName:  entry.LastName,
				FullName:  entry.FullName,
				Team:      row.Team,
				Games:     len(samples),
			})
			if err != nil {
				log.Printf("[engine] ⊘ %v", err)
				continue
			}

			injuryStatus, injuryKnown := resolveInjury(name, entry, injuries)

			agg := stats.Build(samples, stats.SeasonAverages{
				Games:    row.Games,
				Points:   row.Points,
				Rebounds: row.Rebounds,
				Assists:  row.Assists,
				Threes:   row.Threes,
				Minutes:  row.Minutes,
			}, injuryKnown)

			line := buildStatLine(playerID, name, row.Team, entry.Position, agg, injuryStatus, now)
			if err := s.lines.Upsert(ctx, line); err != nil {
				log.Printf("[engine] ❌ Stat line for player %d not persisted: %v", playerID, err)
				continue
			}
			summary.Counts.Players++
		}

		s.publish(ctx, "stats.refreshed", summary)
		return nil
	})
}

// refreshTeamContext rebuilds the defensive rank and pace tiers for every team.
func (s *Service) refreshTeamContext(ctx context.Context, summary *RunSummary) error {
	teamRows, err := s.api.TeamSeasonStats(ctx, s.cfg.Season)
	if err != nil {
		return fmt.Errorf("fetching team season stats: %w", err)
	}

	seasons := make([]stats.TeamSeason, len(teamRows))
	for i, row := range teamRows {
		seasons[i] = stats.TeamSeason{
			Team:          row.Team,
			Name:          row.Name,
			PointsAllowed: row.PointsAllowed,
			Possessions:   row.Possessions,
		}
	}

	for _, line := range stats.BuildTeamContext(seasons, s.contextParams, time.Now().UTC()) {
		if err := s.teams.Upsert(ctx, line); err != nil {
			log.Printf("[engine] ❌ Team context for %s not persisted: %v", line.Team, err)
			continue
		}
		summary.Counts.Teams++
	}

	return nil
}

// fetchGameLogs pulls the lookback window of game logs, one provider call per
// day, fanned out across a bounded worker group. A failed day degrades that
// day's data and nothing else: players just see shorter windows.
func (s *Service) fetchGameLogs(ctx context.Context, date time.Time) (map[int64][]provider.GameLog, error) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.FanOutWorkers)

	var mu sync.Mutex
	logsByPlayer := make(map[int64][]provider.GameLog)

	for offset := 0; offset < s.cfg.LookbackDays; offset++ {
		day := date.AddDate(0, 0, -offset)
		group.Go(func() error {
			logs, err := s.api.GameLogs(ctx, day)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[engine] ⊘ Game logs for %s unavailable, continuing without: %v",
					day.Format("2006-01-02"), err)
				return nil
			}

			mu.Lock()
			for _, entry := range logs {
				logsByPlayer[entry.PlayerID] = append(logsByPlayer[entry.PlayerID], entry)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return logsByPlayer, nil
}

// toSamples converts provider game logs into aggregation samples, dropping
// rows whose dates do not parse.
func toSamples(logs []provider.GameLog) []stats.GameSample {
	samples := make([]stats.GameSample, 0, len(logs))
	for _, entry := range logs {
		gameDate, err := time.Parse("2006-01-02", entry.GameDate)
		if err != nil {
			continue
		}
		samples = append(samples, stats.GameSample{
			GameID:   entry.GameID,
			Date:     gameDate,
			Points:   float64(entry.Points),
			Rebounds: float64(entry.Rebounds),
			Assists:  float64(entry.Assists),
			Threes:   float64(entry.Threes),
			Minutes:  entry.Minutes,
			DNP:      entry.DNP,
		})
	}
	return samples
}

// resolveInjury picks the player's injury status, preferring the scraped
// report over the roster feed's field.
func resolveInjury(name string, entry provider.RosterEntry, report provider.InjuryReport) (string, bool) {
	if status, ok := report[name]; ok {
		return status, true
	}
	if entry.InjuryStatus != "" {
		return entry.InjuryStatus, true
	}
	return "healthy", false
}

func buildStatLine(playerID int64, name, team, position string, agg stats.Aggregate, injuryStatus string, now time.Time) *store.PlayerStatLine {
	return &store.PlayerStatLine{
		PlayerID:    playerID,
		Name:        name,
		Team:        team,
		Position:    position,
		GamesPlayed: agg.GamesPlayed,

		Last5Points:  agg.Points.Last5,
		Last10Points: agg.Points.Last10,
		SeasonPoints: agg.Points.Season,
		StdPoints:    agg.Points.Std,

		Last5Rebounds:  agg.Rebounds.Last5,
		Last10Rebounds: agg.Rebounds.Last10,
		SeasonRebounds: agg.Rebounds.Season,
		StdRebounds:    agg.Rebounds.Std,

		Last5Assists:  agg.Assists.Last5,
		Last10Assists: agg.Assists.Last10,
		SeasonAssists: agg.Assists.Season,
		StdAssists:    agg.Assists.Std,

		Last5Threes:  agg.Threes.Last5,
		Last10Threes: agg.Threes.Last10,
		SeasonThrees: agg.Threes.Season,
		StdThrees:    agg.Threes.Std,

		Last5PRA:  agg.PRA.Last5,
		Last10PRA: agg.PRA.Last10,
		SeasonPRA: agg.PRA.Season,
		StdPRA:    agg.PRA.Std,

		Last5Minutes:  agg.Last5Minutes,
		SeasonMinutes: agg.SeasonMinutes,

		InjuryStatus: injuryStatus,
		Completeness: agg.Completeness,
		UpdatedAt:    now,
	}
}
