package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// PropRepository handles prop prediction data access
type PropRepository struct {
	db *store.Database
}

// NewPropRepository creates a new prop repository
func NewPropRepository(db *store.Database) *PropRepository {
	return &PropRepository{db: db}
}

// ReplaceForDate atomically replaces the day's prediction set: delete the
// date's existing rows, insert the fresh set, commit. Running it twice with
// the same inputs yields the same rows. Any failure rolls back the whole
// day so stale and fresh predictions never mix.
func (r *PropRepository) ReplaceForDate(ctx context.Context, date time.Time, props []*store.PropPrediction) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning prop transaction: %w", err)
	}
	defer tx.Rollback()

	day := dateOnly(date)

	if _, err := tx.ExecContext(ctx, `DELETE FROM prop_predictions WHERE prop_date = $1`, day); err != nil {
		return fmt.Errorf("clearing prior predictions: %w", err)
	}

	query := `
		INSERT INTO prop_predictions (prop_date, game_id, player_id, player_name, team,
			stat_type, line, side, probability, break_even, edge, confidence,
			recommendation, volatility_tier, factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, prop := range props {
		factors, err := json.Marshal(prop.Factors)
		if err != nil {
			return fmt.Errorf("encoding calibration factors: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			day, prop.GameID, prop.PlayerID, prop.PlayerName, prop.Team,
			prop.StatType, prop.Line, prop.Side, prop.Probability, prop.BreakEven,
			prop.Edge, prop.Confidence, prop.Recommendation, prop.VolatilityTier, factors,
		)
		if err != nil {
			return fmt.Errorf("inserting prediction for player %d %s: %w", prop.PlayerID, prop.StatType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing predictions: %w", err)
	}

	return nil
}

// GetByDate returns all predictions for a date
func (r *PropRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.PropPrediction, error) {
	query := `
		SELECT id, prop_date, game_id, player_id, player_name, team,
			stat_type, line, side, probability, break_even, edge, confidence,
			recommendation, volatility_tier, factors, created_at
		FROM prop_predictions
		WHERE prop_date = $1
		ORDER BY edge DESC, player_id, stat_type
	`

	rows, err := r.db.DB().QueryContext(ctx, query, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	return r.scanProps(rows)
}

// CountByDate returns the number of predictions stored for a date
func (r *PropRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prop_predictions WHERE prop_date = $1`, dateOnly(date)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting predictions: %w", err)
	}

	return count, nil
}

func (r *PropRepository) scanProps(rows *sql.Rows) ([]*store.PropPrediction, error) {
	var props []*store.PropPrediction
	for rows.Next() {
		prop := &store.PropPrediction{}
		var factors []byte
		err := rows.Scan(
			&prop.ID, &prop.PropDate, &prop.GameID, &prop.PlayerID, &prop.PlayerName, &prop.Team,
			&prop.StatType, &prop.Line, &prop.Side, &prop.Probability, &prop.BreakEven,
			&prop.Edge, &prop.Confidence, &prop.Recommendation, &prop.VolatilityTier,
			&factors, &prop.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}

		if err := json.Unmarshal(factors, &prop.Factors); err != nil {
			return nil, fmt.Errorf("decoding calibration factors: %w", err)
		}

		props = append(props, prop)
	}

	return props, rows.Err()
}
