package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// StatLineRepository handles player stat line data access
type StatLineRepository struct {
	db *store.Database
}

// NewStatLineRepository creates a new stat line repository
func NewStatLineRepository(db *store.Database) *StatLineRepository {
	return &StatLineRepository{db: db}
}

const statLineColumns = `player_id, name, team, position, games_played,
		last5_points, last10_points, season_points, std_points,
		last5_rebounds, last10_rebounds, season_rebounds, std_rebounds,
		last5_assists, last10_assists, season_assists, std_assists,
		last5_threes, last10_threes, season_threes, std_threes,
		last5_pra, last10_pra, season_pra, std_pra,
		last5_minutes, season_minutes, injury_status, completeness, updated_at`

// GetByPlayer finds a stat line by player ID
func (r *StatLineRepository) GetByPlayer(ctx context.Context, playerID int64) (*store.PlayerStatLine, error) {
	query := `
		SELECT ` + statLineColumns + `
		FROM player_stat_lines
		WHERE player_id = $1
	`

	row := r.db.DB().QueryRowContext(ctx, query, playerID)
	line, err := scanStatLine(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stat line not found for player %d", playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying stat line: %w", err)
	}

	return line, nil
}

// GetByTeam returns all stat lines for a team's players
func (r *StatLineRepository) GetByTeam(ctx context.Context, team string) ([]*store.PlayerStatLine, error) {
	query := `
		SELECT ` + statLineColumns + `
		FROM player_stat_lines
		WHERE team = $1
		ORDER BY season_minutes DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("querying team stat lines: %w", err)
	}
	defer rows.Close()

	return r.scanStatLines(rows)
}

// GetAll returns every stat line
func (r *StatLineRepository) GetAll(ctx context.Context) ([]*store.PlayerStatLine, error) {
	query := `
		SELECT ` + statLineColumns + `
		FROM player_stat_lines
		ORDER BY team, season_minutes DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying stat lines: %w", err)
	}
	defer rows.Close()

	return r.scanStatLines(rows)
}

// Upsert inserts or overwrites a player's stat line
func (r *StatLineRepository) Upsert(ctx context.Context, line *store.PlayerStatLine) error {
	query := `
		INSERT INTO player_stat_lines (player_id, name, team, position, games_played,
			last5_points, last10_points, season_points, std_points,
			last5_rebounds, last10_rebounds, season_rebounds, std_rebounds,
			last5_assists, last10_assists, season_assists, std_assists,
			last5_threes, last10_threes, season_threes, std_threes,
			last5_pra, last10_pra, season_pra, std_pra,
			last5_minutes, season_minutes, injury_status, completeness)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			team = EXCLUDED.team,
			position = EXCLUDED.position,
			games_played = EXCLUDED.games_played,
			last5_points = EXCLUDED.last5_points,
			last10_points = EXCLUDED.last10_points,
			season_points = EXCLUDED.season_points,
			std_points = EXCLUDED.std_points,
			last5_rebounds = EXCLUDED.last5_rebounds,
			last10_rebounds = EXCLUDED.last10_rebounds,
			season_rebounds = EXCLUDED.season_rebounds,
			std_rebounds = EXCLUDED.std_rebounds,
			last5_assists = EXCLUDED.last5_assists,
			last10_assists = EXCLUDED.last10_assists,
			season_assists = EXCLUDED.season_assists,
			std_assists = EXCLUDED.std_assists,
			last5_threes = EXCLUDED.last5_threes,
			last10_threes = EXCLUDED.last10_threes,
			season_threes = EXCLUDED.season_threes,
			std_threes = EXCLUDED.std_threes,
			last5_pra = EXCLUDED.last5_pra,
			last10_pra = EXCLUDED.last10_pra,
			season_pra = EXCLUDED.season_pra,
			std_pra = EXCLUDED.std_pra,
			last5_minutes = EXCLUDED.last5_minutes,
			season_minutes = EXCLUDED.season_minutes,
			injury_status = EXCLUDED.injury_status,
			completeness = EXCLUDED.completeness,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		line.PlayerID, line.Name, line.Team, line.Position, line.GamesPlayed,
		line.Last5Points, line.Last10Points, line.SeasonPoints, line.StdPoints,
		line.Last5Rebounds, line.Last10Rebounds, line.SeasonRebounds, line.StdRebounds,
		line.Last5Assists, line.Last10Assists, line.SeasonAssists, line.StdAssists,
		line.Last5Threes, line.Last10Threes, line.SeasonThrees, line.StdThrees,
		line.Last5PRA, line.Last10PRA, line.SeasonPRA, line.StdPRA,
		line.Last5Minutes, line.SeasonMinutes, line.InjuryStatus, line.Completeness,
	)

	if err != nil {
		return fmt.Errorf("upserting stat line: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStatLine(row rowScanner) (*store.PlayerStatLine, error) {
	line := &store.PlayerStatLine{}
	err := row.Scan(
		&line.PlayerID, &line.Name, &line.Team, &line.Position, &line.GamesPlayed,
		&line.Last5Points, &line.Last10Points, &line.SeasonPoints, &line.StdPoints,
		&line.Last5Rebounds, &line.Last10Rebounds, &line.SeasonRebounds, &line.StdRebounds,
		&line.Last5Assists, &line.Last10Assists, &line.SeasonAssists, &line.StdAssists,
		&line.Last5Threes, &line.Last10Threes, &line.SeasonThrees, &line.StdThrees,
		&line.Last5PRA, &line.Last10PRA, &line.SeasonPRA, &line.StdPRA,
		&line.Last5Minutes, &line.SeasonMinutes, &line.InjuryStatus, &line.Completeness, &line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (r *StatLineRepository) scanStatLines(rows *sql.Rows) ([]*store.PlayerStatLine, error) {
	var lines []*store.PlayerStatLine
	for rows.Next() {
		line, err := scanStatLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stat line: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}
