package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// BoxScoreRepository handles final box score data access
type BoxScoreRepository struct {
	db *store.Database
}

// NewBoxScoreRepository creates a new box score repository
func NewBoxScoreRepository(db *store.Database) *BoxScoreRepository {
	return &BoxScoreRepository{db: db}
}

// GetByGame returns all box score rows for a game
func (r *BoxScoreRepository) GetByGame(ctx context.Context, gameID int64) ([]*store.PlayerBoxScore, error) {
	query := `
		SELECT game_id, player_id, player_name, team, points, rebounds, assists,
			threes, steals, blocks, turnovers, minutes, dnp, updated_at
		FROM player_box_scores
		WHERE game_id = $1
		ORDER BY minutes DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying box scores: %w", err)
	}
	defer rows.Close()

	return r.scanBoxScores(rows)
}

// GetByGameAndPlayer returns one player's final line for a game
func (r *BoxScoreRepository) GetByGameAndPlayer(ctx context.Context, gameID, playerID int64) (*store.PlayerBoxScore, error) {
	query := `
		SELECT game_id, player_id, player_name, team, points, rebounds, assists,
			threes, steals, blocks, turnovers, minutes, dnp, updated_at
		FROM player_box_scores
		WHERE game_id = $1 AND player_id = $2
	`

	box := &store.PlayerBoxScore{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID, playerID).Scan(
		&box.GameID, &box.PlayerID, &box.PlayerName, &box.Team, &box.Points, &box.Rebounds,
		&box.Assists, &box.Threes, &box.Steals, &box.Blocks, &box.Turnovers,
		&box.Minutes, &box.DNP, &box.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("box score not found for game %d, player %d", gameID, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying box score: %w", err)
	}

	return box, nil
}

// Upsert inserts or updates a player's final box score, keyed (game_id, player_id)
func (r *BoxScoreRepository) Upsert(ctx context.Context, box *store.PlayerBoxScore) error {
	query := `
		INSERT INTO player_box_scores (game_id, player_id, player_name, team, points,
			rebounds, assists, threes, steals, blocks, turnovers, minutes, dnp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (game_id, player_id) DO UPDATE SET
			player_name = EXCLUDED.player_name,
			team = EXCLUDED.team,
			points = EXCLUDED.points,
			rebounds = EXCLUDED.rebounds,
			assists = EXCLUDED.assists,
			threes = EXCLUDED.threes,
			steals = EXCLUDED.steals,
			blocks = EXCLUDED.blocks,
			turnovers = EXCLUDED.turnovers,
			minutes = EXCLUDED.minutes,
			dnp = EXCLUDED.dnp,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		box.GameID, box.PlayerID, box.PlayerName, box.Team, box.Points,
		box.Rebounds, box.Assists, box.Threes, box.Steals, box.Blocks,
		box.Turnovers, box.Minutes, box.DNP,
	)

	if err != nil {
		return fmt.Errorf("upserting box score: %w", err)
	}

	return nil
}

func (r *BoxScoreRepository) scanBoxScores(rows *sql.Rows) ([]*store.PlayerBoxScore, error) {
	var boxes []*store.PlayerBoxScore
	for rows.Next() {
		box := &store.PlayerBoxScore{}
		err := rows.Scan(
			&box.GameID, &box.PlayerID, &box.PlayerName, &box.Team, &box.Points, &box.Rebounds,
			&box.Assists, &box.Threes, &box.Steals, &box.Blocks, &box.Turnovers,
			&box.Minutes, &box.DNP, &box.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning box score: %w", err)
		}
		boxes = append(boxes, box)
	}

	return boxes, rows.Err()
}
