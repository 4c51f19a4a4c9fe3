package stats

import (
	"math"
	"sort"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// Tier labels for defensive strength and pace.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"

	PaceFast   = "fast"
	PaceMedium = "medium"
	PaceSlow   = "slow"

	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// ContextParams holds the tier cutoffs. Pace thresholds move with league-wide
// pace from season to season, so they stay configurable.
type ContextParams struct {
	FastPace          float64 // possessions per game at or above → fast
	SlowPace          float64 // possessions per game at or below → slow
	MinutesTrendDelta float64 // last5 vs season gap that counts as a trend
}

// DefaultContextParams returns the current season's cutoffs.
func DefaultContextParams() ContextParams {
	return ContextParams{
		FastPace:          101.0,
		SlowPace:          98.0,
		MinutesTrendDelta: 2.0,
	}
}

// TeamSeason is one team's raw season context from the provider.
type TeamSeason struct {
	Team          string
	Name          string
	PointsAllowed float64
	Possessions   float64
}

// BuildTeamContext ranks teams by points allowed (fewest first) and assigns
// defensive and pace tiers. The returned lines are ready to persist.
func BuildTeamContext(teams []TeamSeason, params ContextParams, now time.Time) []*store.TeamStatLine {
	ranked := make([]TeamSeason, len(teams))
	copy(ranked, teams)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].PointsAllowed < ranked[j].PointsAllowed
	})

	lines := make([]*store.TeamStatLine, len(ranked))
	for i, team := range ranked {
		rank := i + 1
		lines[i] = &store.TeamStatLine{
			Team:          team.Team,
			Name:          team.Name,
			DefensiveRank: rank,
			DefensiveTier: DefensiveTier(rank),
			PaceRating:    team.Possessions,
			PaceTier:      PaceTier(team.Possessions, params),
			PointsAllowed: team.PointsAllowed,
			UpdatedAt:     now,
		}
	}

	return lines
}

// DefensiveTier buckets a defensive rank: top 10 defenses are high, bottom
// tier starts at rank 20.
func DefensiveTier(rank int) string {
	switch {
	case rank <= 10:
		return TierHigh
	case rank >= 20:
		return TierLow
	default:
		return TierMedium
	}
}

// PaceTier buckets a team's possessions per game.
func PaceTier(possessions float64, params ContextParams) string {
	switch {
	case possessions >= params.FastPace:
		return PaceFast
	case possessions <= params.SlowPace:
		return PaceSlow
	default:
		return PaceMedium
	}
}

// MinutesTrend compares recent minutes against the season baseline. A gap
// bigger than the configured delta in either direction is a trend.
func MinutesTrend(last5, season float64, params ContextParams) string {
	diff := last5 - season
	if math.Abs(diff) <= params.MinutesTrendDelta {
		return TrendFlat
	}
	if diff > 0 {
		return TrendUp
	}
	return TrendDown
}
