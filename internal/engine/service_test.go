package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/augur/internal/provider"
	"github.com/fortuna/augur/internal/settlement"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

type fakeProvider struct {
	schedule  []provider.ScheduleGame
	seasons   []provider.SeasonAverageRow
	logs      map[string][]provider.GameLog // keyed by date
	roster    []provider.RosterEntry
	teamStats []provider.TeamSeasonRow
	injuries  provider.InjuryReport

	scheduleErr error
	injuryErr   error
	logErrs     map[string]error // per-day GameLogs failures
}

func (f *fakeProvider) Schedule(_ context.Context, _ time.Time) ([]provider.ScheduleGame, error) {
	return f.schedule, f.scheduleErr
}

func (f *fakeProvider) SeasonAverages(_ context.Context, _ int) ([]provider.SeasonAverageRow, error) {
	return f.seasons, nil
}

func (f *fakeProvider) GameLogs(_ context.Context, date time.Time) ([]provider.GameLog, error) {
	day := date.Format("2006-01-02")
	if err := f.logErrs[day]; err != nil {
		return nil, err
	}
	return f.logs[day], nil
}

func (f *fakeProvider) ActiveRoster(_ context.Context) ([]provider.RosterEntry, error) {
	return f.roster, nil
}

func (f *fakeProvider) TeamSeasonStats(_ context.Context, _ int) ([]provider.TeamSeasonRow, error) {
	return f.teamStats, nil
}

func (f *fakeProvider) Fetch(_ context.Context) (provider.InjuryReport, error) {
	return f.injuries, f.injuryErr
}

type fakeGames struct {
	byID       map[int64]*store.Game
	resultsSet []int64
	playedOn   map[string]bool // team|date
}

func newFakeGames(games ...*store.Game) *fakeGames {
	f := &fakeGames{byID: make(map[int64]*store.Game), playedOn: make(map[string]bool)}
	for _, g := range games {
		f.byID[g.GameID] = g
	}
	return f
}

func (f *fakeGames) GetByID(_ context.Context, gameID int64) (*store.Game, error) {
	game, ok := f.byID[gameID]
	if !ok {
		return nil, fmt.Errorf("game %d not found", gameID)
	}
	return game, nil
}

func (f *fakeGames) GetByDate(_ context.Context, date time.Time) ([]*store.Game, error) {
	var out []*store.Game
	for _, g := range f.byID {
		if g.GameDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGames) GetFinalByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	games, _ := f.GetByDate(ctx, date)
	var finals []*store.Game
	for _, g := range games {
		if g.Status == store.StatusFinal {
			finals = append(finals, g)
		}
	}
	return finals, nil
}

func (f *fakeGames) TeamPlayedOn(_ context.Context, team string, date time.Time) (bool, error) {
	return f.playedOn[team+"|"+date.Format("2006-01-02")], nil
}

func (f *fakeGames) Upsert(_ context.Context, game *store.Game) error {
	f.byID[game.GameID] = game
	return nil
}

func (f *fakeGames) SetResult(_ context.Context, gameID int64, _, _ int32, winner string) error {
	f.resultsSet = append(f.resultsSet, gameID)
	return nil
}

type fakeLines struct {
	rows       map[int64]*store.PlayerStatLine
	upsertErrs map[int64]error
}

func (f *fakeLines) GetAll(_ context.Context) ([]*store.PlayerStatLine, error) {
	var out []*store.PlayerStatLine
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeLines) Upsert(_ context.Context, line *store.PlayerStatLine) error {
	if err := f.upsertErrs[line.PlayerID]; err != nil {
		return err
	}
	if f.rows == nil {
		f.rows = make(map[int64]*store.PlayerStatLine)
	}
	f.rows[line.PlayerID] = line
	return nil
}

type fakeTeams struct {
	rows       map[string]*store.TeamStatLine
	upsertErrs map[string]error
}

func (f *fakeTeams) GetAll(_ context.Context) ([]*store.TeamStatLine, error) {
	var out []*store.TeamStatLine
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeTeams) Upsert(_ context.Context, line *store.TeamStatLine) error {
	if err := f.upsertErrs[line.Team]; err != nil {
		return err
	}
	if f.rows == nil {
		f.rows = make(map[string]*store.TeamStatLine)
	}
	f.rows[line.Team] = line
	return nil
}

type fakeProps struct {
	replaced map[string][]*store.PropPrediction
	err      error
}

func (f *fakeProps) ReplaceForDate(_ context.Context, date time.Time, props []*store.PropPrediction) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]*store.PropPrediction)
	}
	f.replaced[date.Format("2006-01-02")] = props
	return nil
}

func (f *fakeProps) GetByDate(_ context.Context, date time.Time) ([]*store.PropPrediction, error) {
	return f.replaced[date.Format("2006-01-02")], nil
}

type fakeBoxes struct {
	rows       []*store.PlayerBoxScore
	upsertErrs map[int64]error // keyed by player id
}

func (f *fakeBoxes) Upsert(_ context.Context, box *store.PlayerBoxScore) error {
	if err := f.upsertErrs[box.PlayerID]; err != nil {
		return err
	}
	f.rows = append(f.rows, box)
	return nil
}

type ledgerEntry struct {
	action string
	status string
	counts repository.Counts
	err    error
}

type fakeRuns struct {
	entries map[string]*ledgerEntry
	seq     int
}

func (f *fakeRuns) Begin(_ context.Context, _ time.Time, action string) (string, error) {
	if f.entries == nil {
		f.entries = make(map[string]*ledgerEntry)
	}
	f.seq++
	runID := fmt.Sprintf("run-%d", f.seq)
	f.entries[runID] = &ledgerEntry{action: action, status: "running"}
	return runID, nil
}

func (f *fakeRuns) Complete(_ context.Context, runID string, counts repository.Counts) error {
	f.entries[runID].status = "complete"
	f.entries[runID].counts = counts
	return nil
}

func (f *fakeRuns) Fail(_ context.Context, runID string, runErr error) error {
	f.entries[runID].status = "error"
	f.entries[runID].err = runErr
	return nil
}

type fakeSettler struct {
	results map[int64]settlement.Result
	errs    map[int64]error
}

func (f *fakeSettler) SettleGame(_ context.Context, game *store.Game) (settlement.Result, error) {
	if err := f.errs[game.GameID]; err != nil {
		return settlement.Result{}, err
	}
	return f.results[game.GameID], nil
}

func (f *fakeSettler) Reconfirm(_ context.Context, gameID int64) (settlement.Result, error) {
	return f.results[gameID], nil
}

func (f *fakeSettler) Revoke(_ context.Context, _ int64) error { return nil }

type fakeSink struct {
	events []string
}

func (f *fakeSink) Publish(_ context.Context, event string, _ interface{}) error {
	f.events = append(f.events, event)
	return nil
}

type fakeBoard struct {
	boards map[string][]*store.PropPrediction
}

func (f *fakeBoard) SetPropBoard(_ context.Context, date time.Time, props []*store.PropPrediction) error {
	if f.boards == nil {
		f.boards = make(map[string][]*store.PropPrediction)
	}
	f.boards[date.Format("2006-01-02")] = props
	return nil
}

func (f *fakeBoard) InvalidatePropBoard(_ context.Context, date time.Time) error {
	delete(f.boards, date.Format("2006-01-02"))
	return nil
}

type harness struct {
	svc      *Service
	provider *fakeProvider
	games    *fakeGames
	lines    *fakeLines
	teams    *fakeTeams
	props    *fakeProps
	boxes    *fakeBoxes
	runs     *fakeRuns
	settler  *fakeSettler
	sink     *fakeSink
	board    *fakeBoard
}

func newHarness(games ...*store.Game) *harness {
	h := &harness{
		provider: &fakeProvider{logs: make(map[string][]provider.GameLog)},
		games:    newFakeGames(games...),
		lines:    &fakeLines{},
		teams:    &fakeTeams{},
		props:    &fakeProps{},
		boxes:    &fakeBoxes{},
		runs:     &fakeRuns{},
		settler:  &fakeSettler{results: make(map[int64]settlement.Result), errs: make(map[int64]error)},
		sink:     &fakeSink{},
		board:    &fakeBoard{},
	}
	h.svc = NewService(
		Config{Sport: "nba", Season: 2025, LookbackDays: 3, FanOutWorkers: 2},
		h.provider, h.provider, h.games, h.lines, h.teams, h.props, h.boxes, h.runs, h.settler, h.sink, h.board,
	)
	return h
}

var propDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func scheduledGame(id int64, home, away string) *store.Game {
	return &store.Game{
		GameID:   id,
		Sport:    "nba",
		GameDate: propDate,
		HomeTeam: home,
		AwayTeam: away,
		Status:   store.StatusScheduled,
	}
}

func statLine(playerID int64, name, team string) *store.PlayerStatLine {
	return &store.PlayerStatLine{
		PlayerID: playerID, Name: name, Team: team, GamesPlayed: 10,
		Last5Points: 20.8, Last10Points: 20.1, SeasonPoints: 18.0, StdPoints: 2.48,
		Last5Rebounds: 7.2, Last10Rebounds: 7.0, SeasonRebounds: 6.8, StdRebounds: 1.4,
		Last5Assists: 5.4, Last10Assists: 5.1, SeasonAssists: 4.9, StdAssists: 1.1,
		Last5Threes: 2.8, Last10Threes: 2.6, SeasonThrees: 2.4, StdThrees: 0.9,
		Last5PRA: 33.4, Last10PRA: 32.2, SeasonPRA: 29.7, StdPRA: 3.6,
		Last5Minutes: 34.0, SeasonMinutes: 33.0,
		InjuryStatus: "healthy", Completeness: 1.0,
	}
}

func teamLine(team, defTier, paceTier string, rank int) *store.TeamStatLine {
	return &store.TeamStatLine{
		Team: team, DefensiveRank: rank, DefensiveTier: defTier,
		PaceRating: 99.5, PaceTier: paceTier, PointsAllowed: 110,
	}
}

func TestGenerateProps(t *testing.T) {
	h := newHarness(
		scheduledGame(101, "BOS", "LAL"),
		scheduledGame(102, "DEN", "MIA"),
	)

	h.teams.rows = map[string]*store.TeamStatLine{
		"BOS": teamLine("BOS", "high", "medium", 2),
		"LAL": teamLine("LAL", "low", "fast", 25),
		"DEN": teamLine("DEN", "medium", "slow", 14),
		// MIA deliberately absent: DEN players have no opponent context.
	}
	h.lines.rows = map[int64]*store.PlayerStatLine{
		237: statLine(237, "Jayson Tatum", "BOS"),
		301: statLine(301, "Nikola Jokic", "DEN"),
		302: statLine(302, "Anthony Davis", "LAL"),
	}
	h.lines.rows[302].InjuryStatus = "out"

	summary, err := h.svc.GenerateProps(context.Background(), propDate)
	require.NoError(t, err)

	board := h.props.replaced["2026-01-15"]
	require.Len(t, board, 5, "one eligible player, five stat categories")
	assert.Equal(t, 5, summary.Counts.Props)

	seen := make(map[string]bool)
	for _, prop := range board {
		assert.Equal(t, int64(237), prop.PlayerID)
		assert.Equal(t, int64(101), prop.GameID)
		assert.Equal(t, "low", prop.Factors.DefensiveTier, "opponent context, not own team")
		assert.NotZero(t, prop.Probability)
		seen[prop.StatType] = true
	}
	assert.Len(t, seen, 5)

	assert.Equal(t, "complete", h.runs.entries[summary.RunID].status)
	assert.Contains(t, h.sink.events, "props.generated")
	assert.Len(t, h.board.boards["2026-01-15"], 5, "cache refreshed alongside the database")
}

func TestGeneratePropsRerunReplacesIdentically(t *testing.T) {
	h := newHarness(scheduledGame(101, "BOS", "LAL"))
	h.teams.rows = map[string]*store.TeamStatLine{
		"BOS": teamLine("BOS", "high", "medium", 2),
		"LAL": teamLine("LAL", "low", "fast", 25),
	}
	h.lines.rows = map[int64]*store.PlayerStatLine{
		237: statLine(237, "Jayson Tatum", "BOS"),
	}

	first, err := h.svc.GenerateProps(context.Background(), propDate)
	require.NoError(t, err)
	firstBoard := h.props.replaced["2026-01-15"]
	require.Len(t, firstBoard, 5)

	second, err := h.svc.GenerateProps(context.Background(), propDate)
	require.NoError(t, err)
	secondBoard := h.props.replaced["2026-01-15"]

	assert.Equal(t, first.Counts.Props, second.Counts.Props, "re-run never grows the board")
	require.Equal(t, firstBoard, secondBoard, "same inputs price the same board")
	assert.Equal(t, "complete", h.runs.entries[second.RunID].status)
}

func TestGeneratePropsReplaceFailureIsFatal(t *testing.T) {
	h := newHarness(scheduledGame(101, "BOS", "LAL"))
	h.teams.rows = map[string]*store.TeamStatLine{
		"BOS": teamLine("BOS", "high", "medium", 2),
		"LAL": teamLine("LAL", "low", "fast", 25),
	}
	h.lines.rows = map[int64]*store.PlayerStatLine{237: statLine(237, "Jayson Tatum", "BOS")}
	h.props.err = fmt.Errorf("deadlock detected")

	_, err := h.svc.GenerateProps(context.Background(), propDate)

	require.Error(t, err)
	entry := h.runs.entries["run-1"]
	assert.Equal(t, "error", entry.status)
	assert.Contains(t, entry.err.Error(), "deadlock")
}

func TestGeneratePropsBackToBackPenalty(t *testing.T) {
	h := newHarness(scheduledGame(101, "BOS", "LAL"))
	h.teams.rows = map[string]*store.TeamStatLine{
		"BOS": teamLine("BOS", "high", "medium", 2),
		"LAL": teamLine("LAL", "medium", "medium", 14),
	}
	h.lines.rows = map[int64]*store.PlayerStatLine{237: statLine(237, "Jayson Tatum", "BOS")}

	_, err := h.svc.GenerateProps(context.Background(), propDate)
	require.NoError(t, err)
	restedConf := h.props.replaced["2026-01-15"][0].Confidence

	h.games.playedOn["BOS|2026-01-14"] = true
	_, err = h.svc.GenerateProps(context.Background(), propDate)
	require.NoError(t, err)
	tiredProps := h.props.replaced["2026-01-15"]

	require.NotEmpty(t, tiredProps)
	assert.True(t, tiredProps[0].Factors.BackToBack)
	assert.InDelta(t, restedConf-5, tiredProps[0].Confidence, 1e-9)
}

func TestRefreshStatsValidatesPlayers(t *testing.T) {
	h := newHarness()
	h.provider.roster = []provider.RosterEntry{
		{ID: 237, FullName: "Jayson Tatum", Team: "BOS", Position: "F"},
		{ID: 999, FullName: "PG Player", Team: "BOS"},
	}
	h.provider.teamStats = []provider.TeamSeasonRow{
		{Team: "BOS", PointsAllowed: 108.1, Possessions: 99.0},
		{Team: "LAL", PointsAllowed: 118.2, Possessions: 102.4},
	}
	h.provider.seasons = []provider.SeasonAverageRow{
		{PlayerID: "237", Team: "BOS", Games: 40, Points: 18.0, Minutes: 33.5},
		{PlayerID: "999", Team: "BOS", Games: 40, Points: 5.0},  // placeholder name
		{PlayerID: "abc", Team: "BOS", Games: 40, Points: 5.0},  // junk id
		{PlayerID: "500", Team: "LAL", Games: 12, Points: 11.0}, // not on roster
	}
	for i := 0; i < 3; i++ {
		day := propDate.AddDate(0, 0, -i).Format("2006-01-02")
		h.provider.logs[day] = []provider.GameLog{
			{GameID: int64(200 + i), GameDate: day, PlayerID: 237, Points: 20 + i, Minutes: 34},
		}
	}

	summary, err := h.svc.RefreshStats(context.Background(), propDate)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Counts.Players)
	assert.Equal(t, 2, summary.Counts.Teams)

	line := h.lines.rows[237]
	require.NotNil(t, line)
	assert.Equal(t, "Jayson Tatum", line.Name)
	assert.Equal(t, 3, line.GamesPlayed)
	assert.InDelta(t, 21.0, line.Last5Points, 1e-9)
	assert.InDelta(t, 18.0, line.SeasonPoints, 1e-9)

	boston := h.teams.rows["BOS"]
	require.NotNil(t, boston)
	assert.Equal(t, 1, boston.DefensiveRank)
}

func TestRefreshStatsSurvivesInjuryReportOutage(t *testing.T) {
	h := newHarness()
	h.provider.roster = []provider.RosterEntry{{ID: 237, FullName: "Jayson Tatum", Team: "BOS"}}
	h.provider.seasons = []provider.SeasonAverageRow{
		{PlayerID: "237", Team: "BOS", Games: 40, Points: 18.0, Minutes: 33.5},
	}
	h.provider.injuryErr = fmt.Errorf("scrape blocked")
	day := propDate.Format("2006-01-02")
	h.provider.logs[day] = []provider.GameLog{
		{GameID: 201, GameDate: day, PlayerID: 237, Points: 20, Minutes: 34},
		{GameID: 202, GameDate: day, PlayerID: 237, Points: 22, Minutes: 34},
		{GameID: 203, GameDate: day, PlayerID: 237, Points: 25, Minutes: 34},
	}

	summary, err := h.svc.RefreshStats(context.Background(), propDate)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Counts.Players)
	line := h.lines.rows[237]
	require.NotNil(t, line)
	assert.Equal(t, "healthy", line.InjuryStatus)
	// 3 of 10 games (0.15) plus minutes present (0.25); injury unknown adds nothing.
	assert.InDelta(t, 0.4, line.Completeness, 1e-9)
}

func TestRefreshStatsSurvivesGameLogOutage(t *testing.T) {
	h := newHarness()
	h.provider.roster = []provider.RosterEntry{{ID: 237, FullName: "Jayson Tatum", Team: "BOS"}}
	h.provider.seasons = []provider.SeasonAverageRow{
		{PlayerID: "237", Team: "BOS", Games: 40, Points: 18.0, Minutes: 33.5},
	}

	day0 := propDate.Format("2006-01-02")
	day2 := propDate.AddDate(0, 0, -2).Format("2006-01-02")
	h.provider.logs[day0] = []provider.GameLog{
		{GameID: 201, GameDate: day0, PlayerID: 237, Points: 20, Minutes: 34},
		{GameID: 202, GameDate: day0, PlayerID: 237, Points: 22, Minutes: 34},
	}
	h.provider.logs[day2] = []provider.GameLog{
		{GameID: 203, GameDate: day2, PlayerID: 237, Points: 24, Minutes: 34},
	}
	h.provider.logErrs = map[string]error{
		propDate.AddDate(0, 0, -1).Format("2006-01-02"): provider.ErrUpstreamUnavailable,
	}

	summary, err := h.svc.RefreshStats(context.Background(), propDate)
	require.NoError(t, err, "one bad day must not abort the refresh run")

	assert.Equal(t, 1, summary.Counts.Players)
	assert.Equal(t, "complete", h.runs.entries[summary.RunID].status)

	line := h.lines.rows[237]
	require.NotNil(t, line)
	assert.Equal(t, 3, line.GamesPlayed, "windows built from the days that succeeded")
	assert.InDelta(t, 22.0, line.Last5Points, 1e-9)
}

func TestRefreshStatsSkipsFailedRowWrites(t *testing.T) {
	h := newHarness()
	h.provider.roster = []provider.RosterEntry{
		{ID: 237, FullName: "Jayson Tatum", Team: "BOS"},
		{ID: 301, FullName: "Nikola Jokic", Team: "DEN"},
	}
	h.provider.teamStats = []provider.TeamSeasonRow{
		{Team: "BOS", PointsAllowed: 108.1, Possessions: 99.0},
		{Team: "LAL", PointsAllowed: 118.2, Possessions: 102.4},
	}
	h.provider.seasons = []provider.SeasonAverageRow{
		{PlayerID: "237", Team: "BOS", Games: 40, Points: 18.0, Minutes: 33.5},
		{PlayerID: "301", Team: "DEN", Games: 40, Points: 26.0, Minutes: 35.0},
	}
	day := propDate.Format("2006-01-02")
	h.provider.logs[day] = []provider.GameLog{
		{GameID: 201, GameDate: day, PlayerID: 237, Points: 20, Minutes: 34},
		{GameID: 202, GameDate: day, PlayerID: 237, Points: 22, Minutes: 34},
		{GameID: 203, GameDate: day, PlayerID: 237, Points: 25, Minutes: 34},
		{GameID: 201, GameDate: day, PlayerID: 301, Points: 28, Minutes: 36},
		{GameID: 202, GameDate: day, PlayerID: 301, Points: 24, Minutes: 36},
		{GameID: 203, GameDate: day, PlayerID: 301, Points: 30, Minutes: 36},
	}
	h.teams.upsertErrs = map[string]error{"LAL": fmt.Errorf("deadlock detected")}
	h.lines.upsertErrs = map[int64]error{301: fmt.Errorf("deadlock detected")}

	summary, err := h.svc.RefreshStats(context.Background(), propDate)
	require.NoError(t, err, "a single failed row write must not abort the run")

	assert.Equal(t, 1, summary.Counts.Teams)
	assert.Equal(t, 1, summary.Counts.Players)
	assert.Equal(t, "complete", h.runs.entries[summary.RunID].status)

	assert.NotNil(t, h.teams.rows["BOS"])
	assert.NotContains(t, h.teams.rows, "LAL")
	assert.NotNil(t, h.lines.rows[237])
	assert.NotContains(t, h.lines.rows, int64(301))
}

func TestUpdateScoresCapturesFinals(t *testing.T) {
	h := newHarness()
	home, away := 112, 104
	h.provider.schedule = []provider.ScheduleGame{
		{
			ID: 101, Date: "2026-01-15", Status: "Final",
			HomeTeam: provider.TeamRef{Abbreviation: "BOS"}, AwayTeam: provider.TeamRef{Abbreviation: "LAL"},
			HomeScore: &home, AwayScore: &away,
		},
		{
			ID: 102, Date: "2026-01-15", Status: "7:30 PM ET",
			HomeTeam: provider.TeamRef{Abbreviation: "DEN"}, AwayTeam: provider.TeamRef{Abbreviation: "MIA"},
		},
	}
	h.provider.logs["2026-01-15"] = []provider.GameLog{
		{GameID: 101, GameDate: "2026-01-15", PlayerID: 237, PlayerName: "Jayson Tatum", Team: "BOS", Points: 27},
		{GameID: 102, GameDate: "2026-01-15", PlayerID: 301, PlayerName: "Nikola Jokic", Team: "DEN", Points: 14},
	}

	summary, err := h.svc.UpdateScores(context.Background(), propDate)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Counts.Games)
	assert.Equal(t, []int64{101}, h.games.resultsSet)
	assert.Equal(t, store.StatusScheduled, h.games.byID[102].Status)

	require.Len(t, h.boxes.rows, 1, "only finals get box scores")
	assert.Equal(t, int64(101), h.boxes.rows[0].GameID)
	assert.Equal(t, 27, h.boxes.rows[0].Points)
}

func TestUpdateScoresSkipsFailedBoxScoreWrite(t *testing.T) {
	h := newHarness()
	home, away := 112, 104
	h.provider.schedule = []provider.ScheduleGame{
		{
			ID: 101, Date: "2026-01-15", Status: "Final",
			HomeTeam: provider.TeamRef{Abbreviation: "BOS"}, AwayTeam: provider.TeamRef{Abbreviation: "LAL"},
			HomeScore: &home, AwayScore: &away,
		},
	}
	h.provider.logs["2026-01-15"] = []provider.GameLog{
		{GameID: 101, GameDate: "2026-01-15", PlayerID: 237, PlayerName: "Jayson Tatum", Team: "BOS", Points: 27},
		{GameID: 101, GameDate: "2026-01-15", PlayerID: 240, PlayerName: "Jaylen Brown", Team: "BOS", Points: 21},
	}
	h.boxes.upsertErrs = map[int64]error{240: fmt.Errorf("deadlock detected")}

	summary, err := h.svc.UpdateScores(context.Background(), propDate)
	require.NoError(t, err, "one failed box-score row must not abort the run")

	assert.Equal(t, 1, summary.Counts.Players)
	assert.Equal(t, "complete", h.runs.entries[summary.RunID].status)
	require.Len(t, h.boxes.rows, 1)
	assert.Equal(t, int64(237), h.boxes.rows[0].PlayerID)
}

func TestSettleResultsCollectsPerGameErrors(t *testing.T) {
	tied := scheduledGame(101, "BOS", "LAL")
	tied.Status = store.StatusFinal
	clean := scheduledGame(102, "DEN", "MIA")
	clean.Status = store.StatusFinal

	h := newHarness(tied, clean)
	h.settler.errs[101] = fmt.Errorf("%w: game 101", settlement.ErrTiedScore)
	h.settler.results[102] = settlement.Result{GameID: 102, Winner: "DEN"}

	_, err := h.svc.SettleResults(context.Background(), propDate)

	require.ErrorIs(t, err, settlement.ErrTiedScore)
	assert.Equal(t, "error", h.runs.entries["run-1"].status)
}

func TestRunActionDispatch(t *testing.T) {
	h := newHarness()

	_, err := h.svc.RunAction(context.Background(), "reticulate_splines", propDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")

	_, err = h.svc.RunAction(context.Background(), ActionUpdateScores, propDate)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdateScores, h.runs.entries["run-1"].action)
}
