package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fortuna/augur/internal/engine"
	"github.com/fortuna/augur/internal/provider"
	"github.com/fortuna/augur/internal/settlement"
)

// EngineService is the slice of the engine the API exposes.
type EngineService interface {
	RunAction(ctx context.Context, action string, date time.Time) (*engine.RunSummary, error)
	ReconfirmGame(ctx context.Context, gameID int64) (settlement.Result, error)
	RevokeGame(ctx context.Context, gameID int64) error
}

// EngineHandler dispatches engine runs requested over HTTP.
type EngineHandler struct {
	svc EngineService
}

// NewEngineHandler creates an engine handler
func NewEngineHandler(svc EngineService) *EngineHandler {
	return &EngineHandler{svc: svc}
}

// runRequest is the POST /engine/run body.
type runRequest struct {
	Action string `json:"action"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// RunAction triggers one engine action synchronously and returns its summary.
func (h *EngineHandler) RunAction(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Action == "" {
		respondError(w, http.StatusBadRequest, "Missing required field: action", nil)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}

	summary, err := h.svc.RunAction(r.Context(), req.Action, date)
	if err != nil {
		// A missing credential is a configuration problem, not a server fault;
		// tell the caller exactly what to fix.
		if errors.Is(err, provider.ErrMissingAPIKey) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":            "Stats provider API key not configured",
				"requires_api_key": true,
				"status":           http.StatusBadRequest,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "Engine run failed", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// ReconfirmGame re-derives a game's winner, clearing any revocation.
func (h *EngineHandler) ReconfirmGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	result, err := h.svc.ReconfirmGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, settlement.ErrNotFinal) || errors.Is(err, settlement.ErrTiedScore) {
			respondError(w, http.StatusConflict, "Game cannot be settled", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Reconfirm failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RevokeGame marks a game's confirmation as revoked.
func (h *EngineHandler) RevokeGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	if err := h.svc.RevokeGame(r.Context(), gameID); err != nil {
		respondError(w, http.StatusNotFound, "Revoke failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Confirmation revoked",
		"game_id": gameID,
	})
}
