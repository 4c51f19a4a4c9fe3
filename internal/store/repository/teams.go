package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// TeamRepository handles team stat line data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetByCode finds a team stat line by its 3-letter code
func (r *TeamRepository) GetByCode(ctx context.Context, team string) (*store.TeamStatLine, error) {
	query := `
		SELECT team, name, defensive_rank, defensive_tier, pace_rating, pace_tier, points_allowed, updated_at
		FROM team_stat_lines
		WHERE team = $1
	`

	line := &store.TeamStatLine{}
	err := r.db.DB().QueryRowContext(ctx, query, team).Scan(
		&line.Team, &line.Name, &line.DefensiveRank, &line.DefensiveTier,
		&line.PaceRating, &line.PaceTier, &line.PointsAllowed, &line.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team not found: %s", team)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return line, nil
}

// GetAll returns all team stat lines
func (r *TeamRepository) GetAll(ctx context.Context) ([]*store.TeamStatLine, error) {
	query := `
		SELECT team, name, defensive_rank, defensive_tier, pace_rating, pace_tier, points_allowed, updated_at
		FROM team_stat_lines
		ORDER BY defensive_rank
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var lines []*store.TeamStatLine
	for rows.Next() {
		line := &store.TeamStatLine{}
		err := rows.Scan(
			&line.Team, &line.Name, &line.DefensiveRank, &line.DefensiveTier,
			&line.PaceRating, &line.PaceTier, &line.PointsAllowed, &line.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// Upsert inserts or overwrites a team stat line
func (r *TeamRepository) Upsert(ctx context.Context, line *store.TeamStatLine) error {
	query := `
		INSERT INTO team_stat_lines (team, name, defensive_rank, defensive_tier, pace_rating, pace_tier, points_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team) DO UPDATE SET
			name = EXCLUDED.name,
			defensive_rank = EXCLUDED.defensive_rank,
			defensive_tier = EXCLUDED.defensive_tier,
			pace_rating = EXCLUDED.pace_rating,
			pace_tier = EXCLUDED.pace_tier,
			points_allowed = EXCLUDED.points_allowed,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		line.Team, line.Name, line.DefensiveRank, line.DefensiveTier,
		line.PaceRating, line.PaceTier, line.PointsAllowed,
	)

	if err != nil {
		return fmt.Errorf("upserting team: %w", err)
	}

	return nil
}
