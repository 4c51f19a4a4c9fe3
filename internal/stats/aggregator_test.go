package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func pointsSamples(points ...float64) []GameSample {
	samples := make([]GameSample, len(points))
	for i, p := range points {
		// Index 0 is the most recent game.
		samples[i] = GameSample{
			GameID:  int64(100 + i),
			Date:    day(28 - i),
			Points:  p,
			Minutes: 34,
		}
	}
	return samples
}

func TestBuildWindowsAndStd(t *testing.T) {
	// Last five games: 20, 22, 18, 25, 19 — older games pad the ten-game window.
	samples := pointsSamples(20, 22, 18, 25, 19, 30, 30, 30, 30, 30, 30, 30)

	agg := Build(samples, SeasonAverages{Games: 40, Points: 18.0, Minutes: 33.5}, true)

	assert.Equal(t, 12, agg.GamesPlayed)
	assert.InDelta(t, 20.8, agg.Points.Last5, 1e-9)
	assert.InDelta(t, 25.4, agg.Points.Last10, 1e-9)
	assert.InDelta(t, 18.0, agg.Points.Season, 1e-9)

	// Population std of [20 22 18 25 19]: mean 20.8, variance 6.16.
	assert.InDelta(t, 2.4819347292, agg.Points.Std, 1e-9)
}

func TestBuildSortsNewestFirst(t *testing.T) {
	// Same games delivered oldest-first must yield the same windows.
	forward := pointsSamples(20, 22, 18, 25, 19, 30, 30)
	reversed := make([]GameSample, len(forward))
	for i, s := range forward {
		reversed[len(forward)-1-i] = s
	}

	a := Build(forward, SeasonAverages{Points: 18}, false)
	b := Build(reversed, SeasonAverages{Points: 18}, false)

	assert.Equal(t, a.Points, b.Points)
	assert.Equal(t, a.GamesPlayed, b.GamesPlayed)
}

func TestBuildExcludesDNPGames(t *testing.T) {
	samples := pointsSamples(20, 22, 18, 25, 19, 40)
	samples[0].DNP = true // the 20-point line never happened

	agg := Build(samples, SeasonAverages{Points: 18}, false)

	assert.Equal(t, 5, agg.GamesPlayed)
	assert.InDelta(t, (22.0+18+25+19+40)/5, agg.Points.Last5, 1e-9)
}

func TestBuildShortLog(t *testing.T) {
	agg := Build(pointsSamples(12, 14), SeasonAverages{Points: 13}, false)

	assert.Equal(t, 2, agg.GamesPlayed)
	assert.InDelta(t, 13.0, agg.Points.Last5, 1e-9)
	assert.InDelta(t, 13.0, agg.Points.Last10, 1e-9)
}

func TestBuildEmptyLog(t *testing.T) {
	agg := Build(nil, SeasonAverages{}, false)

	assert.Equal(t, 0, agg.GamesPlayed)
	assert.Zero(t, agg.Points.Last5)
	assert.Zero(t, agg.Points.Std)
}

func TestPRACombinesCategories(t *testing.T) {
	samples := []GameSample{
		{Date: day(10), Points: 20, Rebounds: 8, Assists: 5},
		{Date: day(9), Points: 10, Rebounds: 4, Assists: 3},
	}

	agg := Build(samples, SeasonAverages{Points: 15, Rebounds: 6, Assists: 4}, false)

	assert.InDelta(t, 25.0, agg.PRA.Last5, 1e-9)
	assert.InDelta(t, 25.0, agg.PRA.Season, 1e-9)
}

func TestCompletenessScoring(t *testing.T) {
	tests := []struct {
		name          string
		games         int
		seasonMinutes float64
		injuryKnown   bool
		want          float64
	}{
		{"full picture", 10, 34, true, 1.0},
		{"deep log only", 12, 0, false, 0.5},
		{"half log with minutes", 5, 30, false, 0.5},
		{"nothing", 0, 0, false, 0.0},
		{"three games all signals", 3, 30, true, 0.65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, completeness(tt.games, tt.seasonMinutes, tt.injuryKnown), 1e-9)
		})
	}
}
