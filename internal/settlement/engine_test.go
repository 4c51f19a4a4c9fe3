package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/fortuna/augur/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWinnerStore struct {
	rows map[int64]*store.ConfirmedWinner
}

func newFakeWinnerStore() *fakeWinnerStore {
	return &fakeWinnerStore{rows: make(map[int64]*store.ConfirmedWinner)}
}

func (f *fakeWinnerStore) Get(_ context.Context, gameID int64, _ string) (*store.ConfirmedWinner, error) {
	return f.rows[gameID], nil
}

func (f *fakeWinnerStore) Upsert(_ context.Context, w *store.ConfirmedWinner) error {
	copied := *w
	copied.Revoked = false
	f.rows[w.GameID] = &copied
	return nil
}

func (f *fakeWinnerStore) Revoke(_ context.Context, gameID int64, _ string) error {
	row, ok := f.rows[gameID]
	if !ok {
		return fmt.Errorf("no confirmation found for game %d", gameID)
	}
	row.Revoked = true
	return nil
}

type fakeGameStore struct {
	games map[int64]*store.Game
}

func (f *fakeGameStore) GetByID(_ context.Context, gameID int64) (*store.Game, error) {
	game, ok := f.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game %d not found", gameID)
	}
	return game, nil
}

type fakeBoxScoreStore struct {
	boxes map[int64][]*store.PlayerBoxScore
}

func (f *fakeBoxScoreStore) GetByGame(_ context.Context, gameID int64) ([]*store.PlayerBoxScore, error) {
	return f.boxes[gameID], nil
}

func finalGame(id int64, home, away string, homeScore, awayScore int32) *store.Game {
	return &store.Game{
		GameID:    id,
		Sport:     "nba",
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: sql.NullInt32{Int32: homeScore, Valid: true},
		AwayScore: sql.NullInt32{Int32: awayScore, Valid: true},
		Status:    store.StatusFinal,
	}
}

func newTestEngine(games ...*store.Game) (*Engine, *fakeWinnerStore) {
	gameStore := &fakeGameStore{games: make(map[int64]*store.Game)}
	for _, g := range games {
		gameStore.games[g.GameID] = g
	}
	winners := newFakeWinnerStore()
	return NewEngine(gameStore, winners, &fakeBoxScoreStore{}, "nba"), winners
}

func TestSettleGameConfirmsWinner(t *testing.T) {
	game := finalGame(101, "BOS", "LAL", 112, 104)
	engine, winners := newTestEngine(game)

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, "BOS", result.Winner)

	row := winners.rows[101]
	require.NotNil(t, row)
	assert.Equal(t, "BOS", row.Winner)
	assert.Equal(t, store.SourceAutomatic, row.Source)
	assert.Equal(t, 112, row.HomeScore)
}

func TestSettleGameAwayWinner(t *testing.T) {
	game := finalGame(102, "BOS", "LAL", 99, 103)
	engine, _ := newTestEngine(game)

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.Equal(t, "LAL", result.Winner)
}

func TestSettleGameSkipsNonFinal(t *testing.T) {
	game := finalGame(103, "BOS", "LAL", 50, 48)
	game.Status = store.StatusInProgress
	engine, winners := newTestEngine(game)

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, winners.rows)
}

func TestSettleGameSkipsMissingScore(t *testing.T) {
	game := finalGame(104, "BOS", "LAL", 112, 104)
	game.AwayScore = sql.NullInt32{}
	engine, winners := newTestEngine(game)

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, winners.rows)
}

func TestSettleGameRejectsTie(t *testing.T) {
	game := finalGame(105, "BOS", "LAL", 100, 100)
	engine, winners := newTestEngine(game)

	_, err := engine.SettleGame(context.Background(), game)

	require.ErrorIs(t, err, ErrTiedScore)
	assert.Empty(t, winners.rows, "no side is ever picked from a tie")
}

func TestSettleGameIsIdempotent(t *testing.T) {
	game := finalGame(106, "BOS", "LAL", 112, 104)
	engine, winners := newTestEngine(game)

	_, err := engine.SettleGame(context.Background(), game)
	require.NoError(t, err)
	confirmedAt := winners.rows[106].ConfirmedAt

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "already confirmed", result.Reason)
	assert.Equal(t, "BOS", result.Winner)
	assert.Equal(t, confirmedAt, winners.rows[106].ConfirmedAt)
}

func TestSettleGameNeverRestoresRevoked(t *testing.T) {
	game := finalGame(107, "BOS", "LAL", 112, 104)
	engine, winners := newTestEngine(game)

	_, err := engine.SettleGame(context.Background(), game)
	require.NoError(t, err)
	require.NoError(t, engine.Revoke(context.Background(), 107))

	result, err := engine.SettleGame(context.Background(), game)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "confirmation revoked", result.Reason)
	assert.True(t, winners.rows[107].Revoked)
}

func TestReconfirmClearsRevocation(t *testing.T) {
	game := finalGame(108, "BOS", "LAL", 112, 104)
	engine, winners := newTestEngine(game)

	_, err := engine.SettleGame(context.Background(), game)
	require.NoError(t, err)
	require.NoError(t, engine.Revoke(context.Background(), 108))

	result, err := engine.Reconfirm(context.Background(), 108)

	require.NoError(t, err)
	assert.Equal(t, "BOS", result.Winner)
	assert.False(t, winners.rows[108].Revoked)
	assert.Equal(t, store.SourceManual, winners.rows[108].Source)
}

func TestReconfirmRequiresFinalGame(t *testing.T) {
	game := finalGame(109, "BOS", "LAL", 50, 40)
	game.Status = store.StatusScheduled
	engine, _ := newTestEngine(game)

	_, err := engine.Reconfirm(context.Background(), 109)

	require.ErrorIs(t, err, ErrNotFinal)
}

func TestRevokeUnknownGameFails(t *testing.T) {
	engine, _ := newTestEngine()

	assert.Error(t, engine.Revoke(context.Background(), 999))
}

func prop(id int64, playerID int64, statType, side string, line float64) *store.PropPrediction {
	return &store.PropPrediction{ID: id, PlayerID: playerID, StatType: statType, Side: side, Line: line}
}

func TestGradeProp(t *testing.T) {
	box := &store.PlayerBoxScore{PlayerID: 237, Points: 27, Rebounds: 8, Assists: 5, Threes: 3}

	tests := []struct {
		name string
		prop *store.PropPrediction
		box  *store.PlayerBoxScore
		want string
	}{
		{"over hits", prop(1, 237, store.StatPoints, "over", 24.5), box, OutcomeWon},
		{"over misses", prop(2, 237, store.StatPoints, "over", 29.5), box, OutcomeLost},
		{"under hits", prop(3, 237, store.StatAssists, "under", 6.5), box, OutcomeWon},
		{"under misses", prop(4, 237, store.StatRebounds, "under", 7.5), box, OutcomeLost},
		{"integer line pushes", prop(5, 237, store.StatPoints, "over", 27.0), box, OutcomePush},
		{"pra combines", prop(6, 237, store.StatPRA, "over", 39.5), box, OutcomeWon},
		{"no box score voids", prop(7, 237, store.StatPoints, "over", 24.5), nil, OutcomeVoid},
		{"dnp voids", prop(8, 237, store.StatPoints, "over", 24.5), &store.PlayerBoxScore{DNP: true}, OutcomeVoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := GradeProp(tt.prop, tt.box)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestGradePropUnknownStat(t *testing.T) {
	_, err := GradeProp(prop(9, 237, "dunks", "over", 2.5), &store.PlayerBoxScore{})
	assert.Error(t, err)
}

func TestGradePropsForGame(t *testing.T) {
	boxes := &fakeBoxScoreStore{boxes: map[int64][]*store.PlayerBoxScore{
		201: {
			{GameID: 201, PlayerID: 237, Points: 30},
			{GameID: 201, PlayerID: 240, DNP: true},
		},
	}}
	engine := NewEngine(&fakeGameStore{}, newFakeWinnerStore(), boxes, "nba")

	outcomes, err := engine.GradeProps(context.Background(), 201, []*store.PropPrediction{
		prop(1, 237, store.StatPoints, "over", 24.5),
		prop(2, 240, store.StatPoints, "over", 10.5),
		prop(3, 999, store.StatPoints, "under", 10.5),
	})

	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: OutcomeWon, 2: OutcomeVoid, 3: OutcomeVoid}, outcomes)
}
