package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/crmagente/ranking/internal/domain/identity"
	"github.com/crmagente/ranking/internal/domain/record"
)

const dayFormat = "2006-01-02"

// Params carries one validated ranking query. Dates arrive as ISO
// calendar date strings; empty dates default to the current month
// (first of month through today), matching the dashboard's behavior.
type Params struct {
	FechaInicio string
	FechaFin    string
	// Agente optionally restricts the response to one identity,
	// matched post-normalization.
	Agente string
	// Limit truncates the ranking. Zero means unrestricted.
	Limit int
	// All widens the caller-owned default scope. The flag is owned by
	// the HTTP layer; here it only participates in the cache key so
	// scoped and unscoped results never alias.
	All bool
	// Debug bypasses the ranking cache and enriches the response with
	// diagnostics.
	Debug bool
}

// Window resolves the inclusive date window, applying the current-month
// default for missing bounds.
func (p Params) Window(now time.Time) (record.Window, error) {
	today := record.Day(now)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := today

	if s := strings.TrimSpace(p.FechaInicio); s != "" {
		d, err := time.Parse(dayFormat, s)
		if err != nil {
			return record.Window{}, fmt.Errorf("%w: fechaInicio %q", ErrInvalidDateRange, s)
		}
		start = d
	}
	if s := strings.TrimSpace(p.FechaFin); s != "" {
		d, err := time.Parse(dayFormat, s)
		if err != nil {
			return record.Window{}, fmt.Errorf("%w: fechaFin %q", ErrInvalidDateRange, s)
		}
		end = d
	}
	if end.Before(start) {
		return record.Window{}, fmt.Errorf("%w: %s after %s", ErrInvalidDateRange, start.Format(dayFormat), end.Format(dayFormat))
	}
	return record.NewWindow(start, end), nil
}

// CacheKey derives the memoization key from the full query parameter
// set. Debug is excluded on purpose: a debug request computes the same
// logical query and must overwrite the same entry. An absent agente
// filter keys as empty; only a present filter is normalized, so "no
// filter" never aliases with a literal unknown-identity query.
func (p Params) CacheKey(w record.Window) string {
	agente := ""
	if s := strings.TrimSpace(p.Agente); s != "" {
		agente = string(identity.Normalize(s))
	}
	return fmt.Sprintf("%s|%s|agente=%s|all=%t|limit=%d",
		w.Start.Format(dayFormat),
		w.End.Format(dayFormat),
		agente,
		p.All,
		p.Limit,
	)
}
