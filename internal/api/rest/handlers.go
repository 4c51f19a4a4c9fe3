package rest

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/augur/internal/cache"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db      *store.Database
	cache   *cache.RedisCache
	games   *repository.GameRepository
	lines   *repository.StatLineRepository
	teams   *repository.TeamRepository
	props   *repository.PropRepository
	boxes   *repository.BoxScoreRepository
	winners *repository.WinnerRepository
	runs    *repository.RunRepository
}

// NewHandler creates a new handler. The cache may be nil; prop board reads
// then always go to the database.
func NewHandler(db *store.Database, redisCache *cache.RedisCache) *Handler {
	return &Handler{
		db:      db,
		cache:   redisCache,
		games:   repository.NewGameRepository(db),
		lines:   repository.NewStatLineRepository(db),
		teams:   repository.NewTeamRepository(db),
		props:   repository.NewPropRepository(db),
		boxes:   repository.NewBoxScoreRepository(db),
		winners: repository.NewWinnerRepository(db),
		runs:    repository.NewRunRepository(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "augur",
		"version": "1.0.0",
	})
}

// GetPropsByDate returns the prop board for a date, strongest edge first
func (h *Handler) GetPropsByDate(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	props := h.cachedPropBoard(r.Context(), date)
	if props == nil {
		props, err = h.props.GetByDate(r.Context(), date)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch props", err)
			return
		}
		h.fillPropBoardCache(r.Context(), date, props)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"count": len(props),
		"props": props,
	})
}

// GetGamesByDate returns all games on a specific date
func (h *Handler) GetGamesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	games, err := h.games.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// GetGame returns a single game
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	game, err := h.games.GetByID(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Game not found", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetGameBoxScore returns the final player lines for a game
func (h *Handler) GetGameBoxScore(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	boxes, err := h.boxes.GetByGame(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch box score", err)
		return
	}

	respondJSON(w, http.StatusOK, boxes)
}

// GetWinnersByDate returns the confirmed winners for a date
func (h *Handler) GetWinnersByDate(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	winners, err := h.winners.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch confirmed winners", err)
		return
	}

	respondJSON(w, http.StatusOK, winners)
}

// GetPlayerStatLines returns every validated player's current stat line
func (h *Handler) GetPlayerStatLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.lines.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stat lines", err)
		return
	}

	respondJSON(w, http.StatusOK, lines)
}

// GetPlayerStatLine returns one player's current stat line
func (h *Handler) GetPlayerStatLine(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(mux.Vars(r)["playerID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	line, err := h.lines.GetByPlayer(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Player not found", err)
		return
	}

	respondJSON(w, http.StatusOK, line)
}

// GetTeams returns every team's context line, best defense first
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
		return
	}

	respondJSON(w, http.StatusOK, teams)
}

// GetRecentRuns returns the most recent run ledger entries
func (h *Handler) GetRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch runs", err)
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

// cachedPropBoard returns the cached board for a date, or nil on any miss
// or cache error. Cache trouble never surfaces to the caller.
func (h *Handler) cachedPropBoard(ctx context.Context, date time.Time) []*store.PropPrediction {
	if h.cache == nil {
		return nil
	}
	props, err := h.cache.GetPropBoard(ctx, date)
	if err != nil {
		log.Printf("[rest] ⊘ Prop board cache read failed: %v", err)
		return nil
	}
	return props
}

func (h *Handler) fillPropBoardCache(ctx context.Context, date time.Time, props []*store.PropPrediction) {
	if h.cache == nil || len(props) == 0 {
		return
	}
	if err := h.cache.SetPropBoard(ctx, date, props); err != nil {
		log.Printf("[rest] ⊘ Prop board cache fill failed: %v", err)
	}
}

// dateParam reads an optional ?date=YYYY-MM-DD query parameter, defaulting
// to today (UTC).
func dateParam(r *http.Request) (time.Time, error) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", dateStr)
}

func gameIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["gameID"], 10, 64)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
