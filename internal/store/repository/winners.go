package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// WinnerRepository handles the confirmed winner ledger
type WinnerRepository struct {
	db *store.Database
}

// NewWinnerRepository creates a new winner repository
func NewWinnerRepository(db *store.Database) *WinnerRepository {
	return &WinnerRepository{db: db}
}

// Get returns the confirmation for a game, or nil if none exists
func (r *WinnerRepository) Get(ctx context.Context, gameID int64, sport string) (*store.ConfirmedWinner, error) {
	query := `
		SELECT game_id, sport, home_team, away_team, home_score, away_score,
			winner, source, confirmed_at, revoked, revoked_at
		FROM confirmed_game_winners
		WHERE game_id = $1 AND sport = $2
	`

	w := &store.ConfirmedWinner{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID, sport).Scan(
		&w.GameID, &w.Sport, &w.HomeTeam, &w.AwayTeam, &w.HomeScore, &w.AwayScore,
		&w.Winner, &w.Source, &w.ConfirmedAt, &w.Revoked, &w.RevokedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying confirmed winner: %w", err)
	}

	return w, nil
}

// GetByDate returns confirmations for all games on a date
func (r *WinnerRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.ConfirmedWinner, error) {
	query := `
		SELECT w.game_id, w.sport, w.home_team, w.away_team, w.home_score, w.away_score,
			w.winner, w.source, w.confirmed_at, w.revoked, w.revoked_at
		FROM confirmed_game_winners w
		JOIN games g ON g.game_id = w.game_id
		WHERE g.game_date = $1
		ORDER BY w.game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("querying confirmed winners: %w", err)
	}
	defer rows.Close()

	var winners []*store.ConfirmedWinner
	for rows.Next() {
		w := &store.ConfirmedWinner{}
		err := rows.Scan(
			&w.GameID, &w.Sport, &w.HomeTeam, &w.AwayTeam, &w.HomeScore, &w.AwayScore,
			&w.Winner, &w.Source, &w.ConfirmedAt, &w.Revoked, &w.RevokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning confirmed winner: %w", err)
		}
		winners = append(winners, w)
	}

	return winners, rows.Err()
}

// Upsert writes a confirmation, keyed (game_id, sport). The caller is
// responsible for the skip rules around existing and revoked rows; the upsert
// itself clears any revocation flag.
func (r *WinnerRepository) Upsert(ctx context.Context, w *store.ConfirmedWinner) error {
	query := `
		INSERT INTO confirmed_game_winners (game_id, sport, home_team, away_team,
			home_score, away_score, winner, source, confirmed_at, revoked, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), FALSE, NULL)
		ON CONFLICT (game_id, sport) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			winner = EXCLUDED.winner,
			source = EXCLUDED.source,
			confirmed_at = NOW(),
			revoked = FALSE,
			revoked_at = NULL
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		w.GameID, w.Sport, w.HomeTeam, w.AwayTeam,
		w.HomeScore, w.AwayScore, w.Winner, w.Source,
	)

	if err != nil {
		return fmt.Errorf("upserting confirmed winner: %w", err)
	}

	return nil
}

// Revoke marks a confirmation as revoked. The automatic settlement path will
// not touch it again; only an explicit reconfirm can.
func (r *WinnerRepository) Revoke(ctx context.Context, gameID int64, sport string) error {
	query := `
		UPDATE confirmed_game_winners
		SET revoked = TRUE, revoked_at = NOW()
		WHERE game_id = $1 AND sport = $2
	`

	result, err := r.db.DB().ExecContext(ctx, query, gameID, sport)
	if err != nil {
		return fmt.Errorf("revoking confirmed winner: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no confirmation found for game %d", gameID)
	}

	return nil
}
