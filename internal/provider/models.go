package provider

import "encoding/json"

// TeamRef identifies a team in provider payloads.
type TeamRef struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
	FullName     string `json:"full_name"`
}

// ScheduleGame is one game from the daily schedule endpoint. Scores are
// pointers because the provider omits them until the game ends.
type ScheduleGame struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`   // YYYY-MM-DD
	Status    string  `json:"status"` // provider-specific, normalized downstream
	Tipoff    string  `json:"tipoff"` // RFC 3339
	HomeTeam  TeamRef `json:"home_team"`
	AwayTeam  TeamRef `json:"visitor_team"`
	HomeScore *int    `json:"home_team_score"`
	AwayScore *int    `json:"visitor_team_score"`
}

// SeasonAverageRow is a player's season-to-date averages. The player ID is
// kept as a raw json.Number because the feed occasionally carries junk ids
// for placeholder rows; the identity validator decides what is usable.
type SeasonAverageRow struct {
	PlayerID json.Number `json:"player_id"`
	Team     string      `json:"team"`
	Games    int         `json:"games_played"`
	Points   float64     `json:"pts"`
	Rebounds float64     `json:"reb"`
	Assists  float64     `json:"ast"`
	Threes   float64     `json:"fg3m"`
	Minutes  float64     `json:"min"`
}

// GameLog is one player's line from one game, used both for rolling-window
// aggregation and as the authoritative final box score once the game is over.
type GameLog struct {
	GameID     int64   `json:"game_id"`
	GameDate   string  `json:"game_date"` // YYYY-MM-DD
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Team       string  `json:"team"`
	Points     int     `json:"pts"`
	Rebounds   int     `json:"reb"`
	Assists    int     `json:"ast"`
	Threes     int     `json:"fg3m"`
	Steals     int     `json:"stl"`
	Blocks     int     `json:"blk"`
	Turnovers  int     `json:"turnover"`
	Minutes    float64 `json:"min"`
	DNP        bool    `json:"dnp"`
}

// RosterEntry is one player from the canonical active-player roster.
type RosterEntry struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FullName     string `json:"full_name"`
	Team         string `json:"team"`
	Position     string `json:"position"`
	InjuryStatus string `json:"injury_status"`
}

// TeamSeasonRow is a team's season-to-date context stats.
type TeamSeasonRow struct {
	Team          string  `json:"abbreviation"`
	Name          string  `json:"full_name"`
	PointsAllowed float64 `json:"opp_pts_per_game"`
	Possessions   float64 `json:"possessions_per_game"`
}

// listResponse is the provider's standard paginated envelope.
type listResponse[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		NextCursor *int `json:"next_cursor"`
	} `json:"meta"`
}
