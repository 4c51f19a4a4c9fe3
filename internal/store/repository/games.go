package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, sport, game_date, tipoff, home_team, away_team,
		home_score, away_score, status, winner, created_at, updated_at`

// GetByID finds a game by its provider ID
func (r *GameRepository) GetByID(ctx context.Context, gameID int64) (*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE game_id = $1
	`

	game := &store.Game{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID).Scan(
		&game.GameID, &game.Sport, &game.GameDate, &game.Tipoff, &game.HomeTeam, &game.AwayTeam,
		&game.HomeScore, &game.AwayScore, &game.Status, &game.Winner,
		&game.CreatedAt, &game.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game not found: %d", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return game, nil
}

// GetByDate returns all games on a specific date
func (r *GameRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE game_date = $1
		ORDER BY tipoff
	`

	rows, err := r.db.DB().QueryContext(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// GetFinalByDate returns all final games on a date, the set eligible for settlement
func (r *GameRepository) GetFinalByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE game_date = $1 AND status = 'final'
		ORDER BY game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("querying final games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// TeamPlayedOn reports whether a team had a game on the given date.
// Used as the back-to-back fatigue signal.
func (r *GameRepository) TeamPlayedOn(ctx context.Context, team string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM games
			WHERE game_date = $1 AND (home_team = $2 OR away_team = $2)
		)
	`

	var played bool
	err := r.db.DB().QueryRowContext(ctx, query, dateOnly(date), team).Scan(&played)
	if err != nil {
		return false, fmt.Errorf("querying team schedule: %w", err)
	}

	return played, nil
}

// Upsert inserts or updates a game. One row per game ID; the day's refresh
// overwrites scores and status.
func (r *GameRepository) Upsert(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (game_id, sport, game_date, tipoff, home_team, away_team,
			home_score, away_score, status, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			tipoff = EXCLUDED.tipoff,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			status = EXCLUDED.status,
			winner = EXCLUDED.winner,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		game.GameID, game.Sport, dateOnly(game.GameDate), game.Tipoff, game.HomeTeam, game.AwayTeam,
		game.HomeScore, game.AwayScore, game.Status, game.Winner,
	)

	if err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}

	return nil
}

// SetResult records the final scores and derived winner on the game record.
// The confirmation ledger is written separately by the settlement engine.
func (r *GameRepository) SetResult(ctx context.Context, gameID int64, homeScore, awayScore int32, winner string) error {
	query := `
		UPDATE games
		SET home_score = $2, away_score = $3, winner = $4, status = 'final', updated_at = NOW()
		WHERE game_id = $1
	`

	_, err := r.db.DB().ExecContext(ctx, query, gameID, homeScore, awayScore, winner)
	if err != nil {
		return fmt.Errorf("setting game result: %w", err)
	}

	return nil
}

// scanGames scans multiple game rows
func (r *GameRepository) scanGames(rows *sql.Rows) ([]*store.Game, error) {
	var games []*store.Game
	for rows.Next() {
		game := &store.Game{}
		err := rows.Scan(
			&game.GameID, &game.Sport, &game.GameDate, &game.Tipoff, &game.HomeTeam, &game.AwayTeam,
			&game.HomeScore, &game.AwayScore, &game.Status, &game.Winner,
			&game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
