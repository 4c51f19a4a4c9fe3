package stats

import (
	"math"
	"sort"
	"time"
)

// Window sizes for rolling averages.
const (
	ShortWindow = 5
	LongWindow  = 10
)

// GameSample is one played game in a player's log. DNP games carry no usable
// line and are excluded from every window.
type GameSample struct {
	GameID   int64
	Date     time.Time
	Points   float64
	Rebounds float64
	Assists  float64
	Threes   float64
	Minutes  float64
	DNP      bool
}

// PRA is the combined points+rebounds+assists value for the sample.
func (s GameSample) PRA() float64 {
	return s.Points + s.Rebounds + s.Assists
}

// SeasonAverages is a player's season-to-date baseline.
type SeasonAverages struct {
	Games    int
	Points   float64
	Rebounds float64
	Assists  float64
	Threes   float64
	Minutes  float64
}

// StatWindows holds the aggregated values for one stat category.
type StatWindows struct {
	Last5  float64
	Last10 float64
	Season float64
	Std    float64
}

// Aggregate is the full rolling-stat picture for one player.
type Aggregate struct {
	GamesPlayed   int
	Points        StatWindows
	Rebounds      StatWindows
	Assists       StatWindows
	Threes        StatWindows
	PRA           StatWindows
	Last5Minutes  float64
	SeasonMinutes float64
	Completeness  float64
}

// Build computes rolling windows from a player's game log and season
// baseline. Samples may arrive in any order; DNP games do not count toward
// windows or the games-played total.
func Build(samples []GameSample, season SeasonAverages, injuryKnown bool) Aggregate {
	played := make([]GameSample, 0, len(samples))
	for _, s := range samples {
		if !s.DNP {
			played = append(played, s)
		}
	}

	// Newest first, so windows are simple prefixes.
	sort.Slice(played, func(i, j int) bool {
		return played[i].Date.After(played[j].Date)
	})

	last5 := window(played, ShortWindow)
	last10 := window(played, LongWindow)

	agg := Aggregate{
		GamesPlayed:   len(played),
		Points:        windowsFor(last5, last10, season.Points, func(s GameSample) float64 { return s.Points }),
		Rebounds:      windowsFor(last5, last10, season.Rebounds, func(s GameSample) float64 { return s.Rebounds }),
		Assists:       windowsFor(last5, last10, season.Assists, func(s GameSample) float64 { return s.Assists }),
		Threes:        windowsFor(last5, last10, season.Threes, func(s GameSample) float64 { return s.Threes }),
		PRA:           windowsFor(last5, last10, season.Points+season.Rebounds+season.Assists, GameSample.PRA),
		Last5Minutes:  mean(values(last5, func(s GameSample) float64 { return s.Minutes })),
		SeasonMinutes: season.Minutes,
	}
	agg.Completeness = completeness(len(played), season.Minutes, injuryKnown)

	return agg
}

func windowsFor(last5, last10 []GameSample, seasonAvg float64, pick func(GameSample) float64) StatWindows {
	short := values(last5, pick)
	return StatWindows{
		Last5:  mean(short),
		Last10: mean(values(last10, pick)),
		Season: seasonAvg,
		Std:    stdDev(short),
	}
}

func window(samples []GameSample, n int) []GameSample {
	if len(samples) < n {
		return samples
	}
	return samples[:n]
}

func values(samples []GameSample, pick func(GameSample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stdDev is the population standard deviation of the short window. Volatility
// is about the games we actually have, not an estimate of a wider population.
func stdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}

// completeness scores how much of the input picture is present, in [0, 1]:
// half from game-log depth (saturating at 10 games), a quarter each for
// minutes data and a known injury status.
func completeness(games int, seasonMinutes float64, injuryKnown bool) float64 {
	score := math.Min(1, float64(games)/float64(LongWindow)) * 0.5
	if seasonMinutes > 0 {
		score += 0.25
	}
	if injuryKnown {
		score += 0.25
	}
	return score
}
