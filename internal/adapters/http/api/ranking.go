// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmagente/ranking/internal/adapters/store"
	"github.com/crmagente/ranking/internal/app"
	"github.com/crmagente/ranking/internal/domain/identity"
	"github.com/crmagente/ranking/internal/domain/ranking"
)

// RankingHandler handles agent ranking requests.
type RankingHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies, maxLimit int) *RankingHandler {
	return &RankingHandler{deps: deps, maxLimit: maxLimit}
}

// rankingRow mirrors the response schema for one ranking entry. Puntos
// and avgPuntaje are rounded for display; sumPuntaje carries the exact
// decimal for clients that need it.
type rankingRow struct {
	Nombre            string          `json:"nombre"`
	NombreNormalizado string          `json:"nombreNormalizado"`
	Puntos            float64         `json:"puntos"`
	SumPuntaje        decimal.Decimal `json:"sumPuntaje"`
	AvgPuntaje        float64         `json:"avgPuntaje"`
	Ventas            int             `json:"ventas"`
	OriginCollections []string        `json:"originCollections"`
	Team              string          `json:"team,omitempty"`
	Supervisor        string          `json:"supervisor,omitempty"`
}

type rankingPayload struct {
	Ranking []rankingRow `json:"ranking"`
	Total   int          `json:"total"`
	Debug   *debugInfo   `json:"debug,omitempty"`
}

// debugInfo is attached only for debug=true requests.
type debugInfo struct {
	ScanID     string                    `json:"scanId"`
	Cached     bool                      `json:"cached"`
	ComputedAt time.Time                 `json:"computedAt"`
	Stats      ranking.Stats             `json:"stats"`
	Failures   []store.CollectionFailure `json:"failures,omitempty"`
}

// HandleGetRanking handles GET /api/ranking requests.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	params, err := h.parseParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, err))
		return
	}

	res, cached, err := h.deps.Ranking(r.Context(), params)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrInvalidDateRange), errors.Is(err, app.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, assembleRanking(res, params, cached))
}

func (h *RankingHandler) parseParams(r *http.Request) (app.Params, error) {
	q := r.URL.Query()
	p := app.Params{
		FechaInicio: q.Get("fechaInicio"),
		FechaFin:    q.Get("fechaFin"),
		Agente:      q.Get("agente"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return app.Params{}, NewKind("limit", ErrBadRequest)
		}
		if h.maxLimit > 0 && n > h.maxLimit {
			return app.Params{}, NewKind("limit exceeded", ErrBadRequest)
		}
		p.Limit = n
	}
	var err error
	if p.All, err = parseFlag(q.Get("all")); err != nil {
		return app.Params{}, NewKind("all", ErrBadRequest)
	}
	if p.Debug, err = parseFlag(q.Get("debug")); err != nil {
		return app.Params{}, NewKind("debug", ErrBadRequest)
	}
	return p, nil
}

func parseFlag(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ErrBadRequest
	}
	return b, nil
}

// assembleRanking shapes a computed result for the wire: agente filter,
// limit truncation, and two-decimal presentation rounding all happen
// here and never inside the cached result.
func assembleRanking(res *app.Result, p app.Params, cached bool) rankingPayload {
	entries := res.Entries
	if agente := strings.TrimSpace(p.Agente); agente != "" {
		key := identity.Normalize(agente)
		filtered := make([]ranking.Entry, 0, 1)
		for _, e := range entries {
			if e.IdentityKey == key {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	total := len(entries)
	if p.Limit > 0 && len(entries) > p.Limit {
		entries = entries[:p.Limit]
	}

	rows := make([]rankingRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rankingRow{
			Nombre:            e.DisplayName,
			NombreNormalizado: string(e.IdentityKey),
			Puntos:            e.SumScore.Round(2).InexactFloat64(),
			SumPuntaje:        e.SumScore,
			AvgPuntaje:        e.AverageScore.Round(2).InexactFloat64(),
			Ventas:            e.SaleCount,
			OriginCollections: e.OriginCollections,
			Team:              e.Team,
			Supervisor:        e.Supervisor,
		})
	}

	payload := rankingPayload{Ranking: rows, Total: total}
	if p.Debug {
		payload.Debug = &debugInfo{
			ScanID:     res.Report.ScanID,
			Cached:     cached,
			ComputedAt: res.ComputedAt,
			Stats:      res.Stats,
			Failures:   res.Report.Failures,
		}
	}
	return payload
}
