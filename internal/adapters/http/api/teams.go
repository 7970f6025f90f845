// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/crmagente/ranking/internal/app"
)

// TeamsHandler handles team rollup requests.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamRow struct {
	Team    string          `json:"team"`
	Puntos  float64         `json:"puntos"`
	Puntaje decimal.Decimal `json:"sumPuntaje"`
	Ventas  int             `json:"ventas"`
	Agents  int             `json:"agents"`
}

type teamsPayload struct {
	Teams []teamRow `json:"teams"`
	Total int       `json:"total"`
}

// HandleGetTeams handles GET /api/ranking/teams requests. The endpoint
// shares the ranking cache: same window, same cached computation.
func (h *TeamsHandler) HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_teams"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	params := app.Params{
		FechaInicio: q.Get("fechaInicio"),
		FechaFin:    q.Get("fechaFin"),
	}
	var err error
	if params.Debug, err = parseFlag(q.Get("debug")); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	res, _, err := h.deps.Ranking(r.Context(), params)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	rows := make([]teamRow, 0, len(res.Teams))
	for _, t := range res.Teams {
		rows = append(rows, teamRow{
			Team:    t.Team,
			Puntos:  t.SumScore.Round(2).InexactFloat64(),
			Puntaje: t.SumScore,
			Ventas:  t.SaleCount,
			Agents:  t.Agents,
		})
	}
	writeJSON(w, http.StatusOK, teamsPayload{Teams: rows, Total: len(rows)})
}
