// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crmagente/ranking/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the application service.
type Dependencies interface {
	// Ranking answers one ranking query. The boolean reports whether the
	// result came from cache.
	Ranking(ctx context.Context, p app.Params) (*app.Result, bool, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler  *HealthHandler
	rankingHandler *RankingHandler
	teamsHandler   *TeamsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// the limit query parameter; zero disables the cap.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		rankingHandler: NewRankingHandler(deps, maxLimit),
		teamsHandler:   NewTeamsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("/api/ranking/teams", MetricsMiddleware(s.teamsHandler.HandleGetTeams, "ranking_teams"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
