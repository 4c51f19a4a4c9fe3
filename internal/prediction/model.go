package prediction

import (
	"fmt"
	"math"

	"github.com/fortuna/augur/internal/stats"
)

// Prop sides.
const (
	SideOver  = "over"
	SideUnder = "under"
)

// Recommendation tiers, strongest first. Avoid always wins over the play
// tiers: a negative-edge or unstable prop is never recommended, whatever its
// confidence says.
const (
	RecStrongPlay = "strong_play"
	RecLean       = "lean"
	RecPass       = "pass"
	RecAvoid      = "avoid"
)

// Volatility tiers, from the ratio of short-window deviation to projection.
const (
	VolatilityHigh   = "high"
	VolatilityMedium = "medium"
	VolatilityLow    = "low"
)

// Params holds every tunable in the model. Values are calibrated against
// historical grading runs; change them together, not piecemeal.
type Params struct {
	RecentWeight float64 // weight on the last-5 average
	SeasonWeight float64 // weight on the season average

	VolatilityNudge float64 // std fraction shaved off the projection to set the line
	LogisticSlope   float64 // steepness of the probability curve
	StdFloor        float64 // minimum deviation used in the z-score

	BreakEven float64 // win probability needed to break even at standard odds

	DefenseDelta float64 // probability shift for a high/low opponent defense
	PaceDelta    float64 // probability shift for a fast/slow pace matchup
	MinutesDelta float64 // probability shift for a minutes trend

	ProbabilityMin float64
	ProbabilityMax float64
	ConfidenceMin  float64
	ConfidenceMax  float64
}

// DefaultParams returns the calibrated model parameters.
func DefaultParams() Params {
	return Params{
		RecentWeight:    0.6,
		SeasonWeight:    0.4,
		VolatilityNudge: 0.1,
		LogisticSlope:   1.7,
		StdFloor:        0.5,
		BreakEven:       0.524,
		DefenseDelta:    0.03,
		PaceDelta:       0.02,
		MinutesDelta:    0.02,
		ProbabilityMin:  0.35,
		ProbabilityMax:  0.65,
		ConfidenceMin:   30,
		ConfidenceMax:   70,
	}
}

// Input is everything the model needs to price one player/stat pair. All
// context fields must be present; callers skip players with missing context
// rather than predicting on partial information.
type Input struct {
	Last5  float64
	Last10 float64
	Season float64
	Std    float64

	OpponentDefense string // stats defensive tier of the opposing team
	Pace            string // stats pace tier of the matchup
	MinutesTrend    string
	InjuryStatus    string // "healthy" or "questionable"; "out" players are skipped upstream
	BackToBack      bool

	Completeness float64
	MissingData  int // count of optional inputs that were unavailable
}

// Prediction is one priced prop.
type Prediction struct {
	Line            float64
	Side            string
	Probability     float64
	BaseProbability float64 // pre-adjustment over probability, kept for audit
	Projected       float64
	Edge            float64
	Confidence      float64
	Recommendation  string
	VolatilityTier  string
}

// Model prices player props from rolling stats and matchup context.
type Model struct {
	params Params
}

// NewModel creates a model with the given parameters.
func NewModel(params Params) *Model {
	return &Model{params: params}
}

// Params returns the model's parameters.
func (m *Model) Params() Params {
	return m.params
}

// Predict prices one prop. Identical inputs always produce identical output;
// there is no randomness anywhere in the pipeline.
func (m *Model) Predict(in Input) (Prediction, error) {
	p := m.params

	projected := in.Last5*p.RecentWeight + in.Season*p.SeasonWeight
	if projected <= 0 {
		return Prediction{}, fmt.Errorf("non-positive projection %.2f", projected)
	}

	// The line sits slightly under the projection: volatile players get a
	// bigger discount, which keeps lines conservative.
	line := roundHalf(projected - in.Std*p.VolatilityNudge)

	z := (line - projected) / math.Max(in.Std, p.StdFloor)
	pUnder := logistic(p.LogisticSlope * z)
	pOver := 1 - pUnder

	base := pOver
	pOver += m.contextAdjustment(in)
	pOver = clamp(pOver, p.ProbabilityMin, p.ProbabilityMax)
	pUnder = 1 - pOver

	side, prob := SideOver, pOver
	if pUnder > pOver {
		side, prob = SideUnder, pUnder
	}

	edge := (prob - p.BreakEven) * 100
	confidence := m.confidence(edge, in)
	volatilityRatio := in.Std / projected

	return Prediction{
		Line:            line,
		Side:            side,
		Probability:     prob,
		BaseProbability: base,
		Projected:       projected,
		Edge:            edge,
		Confidence:      confidence,
		Recommendation:  m.recommend(edge, confidence, volatilityRatio, in),
		VolatilityTier:  volatilityTier(volatilityRatio),
	}, nil
}

// contextAdjustment converts matchup context into a signed shift on the over
// probability. A tough defense suppresses scoring; pace and rising minutes
// add possessions and opportunity.
func (m *Model) contextAdjustment(in Input) float64 {
	p := m.params
	adj := 0.0

	switch in.OpponentDefense {
	case stats.TierHigh:
		adj -= p.DefenseDelta
	case stats.TierLow:
		adj += p.DefenseDelta
	}

	switch in.Pace {
	case stats.PaceFast:
		adj += p.PaceDelta
	case stats.PaceSlow:
		adj -= p.PaceDelta
	}

	switch in.MinutesTrend {
	case stats.TrendUp:
		adj += p.MinutesDelta
	case stats.TrendDown:
		adj -= p.MinutesDelta
	}

	return adj
}

func (m *Model) confidence(edge float64, in Input) float64 {
	conf := 50 + edge*2 + (in.Completeness-0.5)*10

	if in.InjuryStatus == "questionable" {
		conf -= 10
	}
	if in.BackToBack {
		conf -= 5
	}
	conf -= 5 * float64(in.MissingData)

	return clamp(conf, m.params.ConfidenceMin, m.params.ConfidenceMax)
}

func (m *Model) recommend(edge, confidence, volatilityRatio float64, in Input) string {
	// Disqualifiers come first: a strong edge never rescues an unstable prop.
	if edge < -2 || volatilityRatio > 0.4 || in.InjuryStatus == "questionable" {
		return RecAvoid
	}

	switch {
	case edge >= 5 && confidence >= 60:
		return RecStrongPlay
	case edge >= 2 && confidence >= 55:
		return RecLean
	default:
		return RecPass
	}
}

func volatilityTier(ratio float64) string {
	switch {
	case ratio > 0.4:
		return VolatilityHigh
	case ratio < 0.2:
		return VolatilityLow
	default:
		return VolatilityMedium
	}
}

// roundHalf rounds to the nearest 0.5, the standard prop line increment.
func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
