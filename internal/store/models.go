package store

import (
	"database/sql"
	"time"
)

// Game status values. Settlement only touches StatusFinal games.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusFinal      = "final"
)

// Confirmation sources for ConfirmedWinner rows.
const (
	SourceAutomatic = "automatic"
	SourceManual    = "manual"
)

// Stat categories props are generated and graded on.
const (
	StatPoints   = "points"
	StatRebounds = "rebounds"
	StatAssists  = "assists"
	StatThrees   = "threes"
	StatPRA      = "pra"
)

// PlayerStatLine holds a validated player's rolling averages. One row per
// player, overwritten on each refresh. The identity validator guarantees the
// name is never a placeholder and team is a well-formed 3-letter code.
type PlayerStatLine struct {
	PlayerID    int64  `json:"player_id" db:"player_id"`
	Name        string `json:"name" db:"name"`
	Team        string `json:"team" db:"team"`
	Position    string `json:"position" db:"position"`
	GamesPlayed int    `json:"games_played" db:"games_played"`

	Last5Points  float64 `json:"last5_points" db:"last5_points"`
	Last10Points float64 `json:"last10_points" db:"last10_points"`
	SeasonPoints float64 `json:"season_points" db:"season_points"`
	StdPoints    float64 `json:"std_points" db:"std_points"`

	Last5Rebounds  float64 `json:"last5_rebounds" db:"last5_rebounds"`
	Last10Rebounds float64 `json:"last10_rebounds" db:"last10_rebounds"`
	SeasonRebounds float64 `json:"season_rebounds" db:"season_rebounds"`
	StdRebounds    float64 `json:"std_rebounds" db:"std_rebounds"`

	Last5Assists  float64 `json:"last5_assists" db:"last5_assists"`
	Last10Assists float64 `json:"last10_assists" db:"last10_assists"`
	SeasonAssists float64 `json:"season_assists" db:"season_assists"`
	StdAssists    float64 `json:"std_assists" db:"std_assists"`

	Last5Threes  float64 `json:"last5_threes" db:"last5_threes"`
	Last10Threes float64 `json:"last10_threes" db:"last10_threes"`
	SeasonThrees float64 `json:"season_threes" db:"season_threes"`
	StdThrees    float64 `json:"std_threes" db:"std_threes"`

	Last5PRA  float64 `json:"last5_pra" db:"last5_pra"`
	Last10PRA float64 `json:"last10_pra" db:"last10_pra"`
	SeasonPRA float64 `json:"season_pra" db:"season_pra"`
	StdPRA    float64 `json:"std_pra" db:"std_pra"`

	Last5Minutes  float64 `json:"last5_minutes" db:"last5_minutes"`
	SeasonMinutes float64 `json:"season_minutes" db:"season_minutes"`

	InjuryStatus string    `json:"injury_status" db:"injury_status"`
	Completeness float64   `json:"completeness" db:"completeness"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TeamStatLine holds per-team defensive and pace context. Rebuilt each refresh.
type TeamStatLine struct {
	Team          string    `json:"team" db:"team"`
	Name          string    `json:"name" db:"name"`
	DefensiveRank int       `json:"defensive_rank" db:"defensive_rank"`
	DefensiveTier string    `json:"defensive_tier" db:"defensive_tier"`
	PaceRating    float64   `json:"pace_rating" db:"pace_rating"`
	PaceTier      string    `json:"pace_tier" db:"pace_tier"`
	PointsAllowed float64   `json:"points_allowed" db:"points_allowed"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Game represents one game, keyed by the provider's game ID. Scores and winner
// stay NULL until the game is final.
type Game struct {
	GameID    int64          `json:"game_id" db:"game_id"`
	Sport     string         `json:"sport" db:"sport"`
	GameDate  time.Time      `json:"game_date" db:"game_date"`
	Tipoff    sql.NullTime   `json:"tipoff,omitempty" db:"tipoff"`
	HomeTeam  string         `json:"home_team" db:"home_team"`
	AwayTeam  string         `json:"away_team" db:"away_team"`
	HomeScore sql.NullInt32  `json:"home_score,omitempty" db:"home_score"`
	AwayScore sql.NullInt32  `json:"away_score,omitempty" db:"away_score"`
	Status    string         `json:"status" db:"status"`
	Winner    sql.NullString `json:"winner,omitempty" db:"winner"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// CalibrationFactors snapshots every input that fed a prediction, persisted
// alongside it for audit and explainability.
type CalibrationFactors struct {
	Last5Avg        float64 `json:"last5_avg"`
	Last10Avg       float64 `json:"last10_avg"`
	SeasonAvg       float64 `json:"season_avg"`
	StdDev          float64 `json:"std_dev"`
	Projected       float64 `json:"projected"`
	BaseProbability float64 `json:"base_probability"`
	Last5Minutes    float64 `json:"last5_minutes"`
	SeasonMinutes   float64 `json:"season_minutes"`
	MinutesTrend    string  `json:"minutes_trend"`
	DefensiveTier   string  `json:"defensive_tier"`
	DefensiveRank   int     `json:"defensive_rank"`
	PaceTier        string  `json:"pace_tier"`
	PaceRating      float64 `json:"pace_rating"`
	BackToBack      bool    `json:"back_to_back"`
	InjuryStatus    string  `json:"injury_status"`
	Completeness    float64 `json:"completeness"`
}

// PropPrediction is one generated over/under prop. A day's rows are replaced
// wholesale by each generate run, never patched in place.
type PropPrediction struct {
	ID             int64              `json:"id" db:"id"`
	PropDate       time.Time          `json:"prop_date" db:"prop_date"`
	GameID         int64              `json:"game_id" db:"game_id"`
	PlayerID       int64              `json:"player_id" db:"player_id"`
	PlayerName     string             `json:"player_name" db:"player_name"`
	Team           string             `json:"team" db:"team"`
	StatType       string             `json:"stat_type" db:"stat_type"`
	Line           float64            `json:"line" db:"line"`
	Side           string             `json:"side" db:"side"`
	Probability    float64            `json:"probability" db:"probability"`
	BreakEven      float64            `json:"break_even" db:"break_even"`
	Edge           float64            `json:"edge" db:"edge"`
	Confidence     float64            `json:"confidence" db:"confidence"`
	Recommendation string             `json:"recommendation" db:"recommendation"`
	VolatilityTier string             `json:"volatility_tier" db:"volatility_tier"`
	Factors        CalibrationFactors `json:"factors" db:"factors"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}

// PlayerBoxScore is the authoritative per-player final stat line for a game,
// the single source of truth for grading props afterwards.
type PlayerBoxScore struct {
	GameID     int64     `json:"game_id" db:"game_id"`
	PlayerID   int64     `json:"player_id" db:"player_id"`
	PlayerName string    `json:"player_name" db:"player_name"`
	Team       string    `json:"team" db:"team"`
	Points     int       `json:"points" db:"points"`
	Rebounds   int       `json:"rebounds" db:"rebounds"`
	Assists    int       `json:"assists" db:"assists"`
	Threes     int       `json:"threes" db:"threes"`
	Steals     int       `json:"steals" db:"steals"`
	Blocks     int       `json:"blocks" db:"blocks"`
	Turnovers  int       `json:"turnovers" db:"turnovers"`
	Minutes    float64   `json:"minutes" db:"minutes"`
	DNP        bool      `json:"dnp" db:"dnp"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ConfirmedWinner is the canonical settlement record, keyed by (game, sport).
// A revoked row is never re-confirmed by the automatic path.
type ConfirmedWinner struct {
	GameID      int64        `json:"game_id" db:"game_id"`
	Sport       string       `json:"sport" db:"sport"`
	HomeTeam    string       `json:"home_team" db:"home_team"`
	AwayTeam    string       `json:"away_team" db:"away_team"`
	HomeScore   int          `json:"home_score" db:"home_score"`
	AwayScore   int          `json:"away_score" db:"away_score"`
	Winner      string       `json:"winner" db:"winner"`
	Source      string       `json:"source" db:"source"`
	ConfirmedAt time.Time    `json:"confirmed_at" db:"confirmed_at"`
	Revoked     bool         `json:"revoked" db:"revoked"`
	RevokedAt   sql.NullTime `json:"revoked_at,omitempty" db:"revoked_at"`
}

// RefreshRun is one row in the run ledger.
type RefreshRun struct {
	RunID            string         `json:"run_id" db:"run_id"`
	RunDate          time.Time      `json:"run_date" db:"run_date"`
	Action           string         `json:"action" db:"action"`
	GamesProcessed   int            `json:"games_processed" db:"games_processed"`
	PlayersProcessed int            `json:"players_processed" db:"players_processed"`
	TeamsProcessed   int            `json:"teams_processed" db:"teams_processed"`
	PropsGenerated   int            `json:"props_generated" db:"props_generated"`
	Status           string         `json:"status" db:"status"`
	ErrorMessage     sql.NullString `json:"error_message,omitempty" db:"error_message"`
	StartedAt        time.Time      `json:"started_at" db:"started_at"`
	FinishedAt       sql.NullTime   `json:"finished_at,omitempty" db:"finished_at"`
}
