package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/augur/internal/backfill"
	"github.com/fortuna/augur/internal/cache"
	"github.com/fortuna/augur/internal/store"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, redisCache *cache.RedisCache, engineSvc EngineService, backfillSvc *backfill.Service) *Server {
	handler := NewHandler(db, redisCache)
	engineHandler := NewEngineHandler(engineSvc)
	backfillHandler := NewBackfillHandler(backfillSvc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Engine operations
	api.HandleFunc("/engine/run", engineHandler.RunAction).Methods("POST")
	api.HandleFunc("/engine/runs", handler.GetRecentRuns).Methods("GET")

	// Props
	api.HandleFunc("/props", handler.GetPropsByDate).Methods("GET")

	// Games
	api.HandleFunc("/games", handler.GetGamesByDate).Methods("GET")
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID}/boxscore", handler.GetGameBoxScore).Methods("GET")
	api.HandleFunc("/games/{gameID}/reconfirm", engineHandler.ReconfirmGame).Methods("POST")
	api.HandleFunc("/games/{gameID}/revoke", engineHandler.RevokeGame).Methods("POST")

	// Settlement ledger
	api.HandleFunc("/winners", handler.GetWinnersByDate).Methods("GET")

	// Players
	api.HandleFunc("/players", handler.GetPlayerStatLines).Methods("GET")
	api.HandleFunc("/players/{playerID}/stats", handler.GetPlayerStatLine).Methods("GET")

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")

	// Backfill operations
	api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
	api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
