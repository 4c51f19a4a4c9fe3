package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTeamContextRanksAndTiers(t *testing.T) {
	teams := []TeamSeason{
		{Team: "LAL", PointsAllowed: 118.2, Possessions: 102.4},
		{Team: "BOS", PointsAllowed: 108.1, Possessions: 99.0},
		{Team: "DEN", PointsAllowed: 112.5, Possessions: 97.2},
	}

	lines := BuildTeamContext(teams, DefaultContextParams(), time.Now())

	require.Len(t, lines, 3)

	assert.Equal(t, "BOS", lines[0].Team)
	assert.Equal(t, 1, lines[0].DefensiveRank)
	assert.Equal(t, TierHigh, lines[0].DefensiveTier)
	assert.Equal(t, PaceMedium, lines[0].PaceTier)

	assert.Equal(t, "DEN", lines[1].Team)
	assert.Equal(t, 2, lines[1].DefensiveRank)
	assert.Equal(t, PaceSlow, lines[1].PaceTier)

	assert.Equal(t, "LAL", lines[2].Team)
	assert.Equal(t, 3, lines[2].DefensiveRank)
	assert.Equal(t, PaceFast, lines[2].PaceTier)
}

func TestDefensiveTierBoundaries(t *testing.T) {
	assert.Equal(t, TierHigh, DefensiveTier(1))
	assert.Equal(t, TierHigh, DefensiveTier(10))
	assert.Equal(t, TierMedium, DefensiveTier(11))
	assert.Equal(t, TierMedium, DefensiveTier(19))
	assert.Equal(t, TierLow, DefensiveTier(20))
	assert.Equal(t, TierLow, DefensiveTier(30))
}

func TestPaceTierBoundaries(t *testing.T) {
	params := DefaultContextParams()

	assert.Equal(t, PaceFast, PaceTier(101.0, params))
	assert.Equal(t, PaceMedium, PaceTier(100.9, params))
	assert.Equal(t, PaceMedium, PaceTier(98.1, params))
	assert.Equal(t, PaceSlow, PaceTier(98.0, params))
}

func TestMinutesTrend(t *testing.T) {
	params := DefaultContextParams()

	assert.Equal(t, TrendUp, MinutesTrend(34.5, 30.0, params))
	assert.Equal(t, TrendDown, MinutesTrend(24.0, 30.0, params))
	assert.Equal(t, TrendFlat, MinutesTrend(31.9, 30.0, params))
	assert.Equal(t, TrendFlat, MinutesTrend(28.0, 30.0, params), "exactly the delta is flat")
}
