// Package ranking merges per-record sale contributions into per-identity
// totals and produces the deterministic ranked list.
package ranking

import (
	"github.com/shopspring/decimal"

	"github.com/crmagente/ranking/internal/domain/identity"
)

// Entry is one row of a computed ranking. Entries are constructed fresh
// per aggregation run and must be treated as immutable once returned;
// cached copies are shared across requests.
type Entry struct {
	IdentityKey identity.Key
	// DisplayName is the most frequent raw spelling observed for the
	// identity inside the aggregated window, ties broken by first
	// occurrence in scan order.
	DisplayName string
	// SumScore and AverageScore stay unrounded; presentation rounding
	// happens only at the response boundary.
	SumScore     decimal.Decimal
	AverageScore decimal.Decimal
	SaleCount    int
	// OriginCollections lists every collection that contributed at least
	// one record, sorted for stable output.
	OriginCollections []string
	// Team and Supervisor are attached by the identity registry join;
	// both stay empty when the registry has no match.
	Team       string
	Supervisor string
}

// Stats counts records consumed and excluded during one aggregation run.
// Exclusions are diagnostics, never request failures.
type Stats struct {
	Consumed           int `json:"consumed"`
	SkippedNoDate      int `json:"skippedNoDate"`
	SkippedNoScore     int `json:"skippedNoScore"`
	SkippedOutOfWindow int `json:"skippedOutOfWindow"`
	UnknownIdentity    int `json:"unknownIdentity"`
	DateConflicts      int `json:"dateConflicts"`
}

func (s *Stats) merge(other Stats) {
	s.Consumed += other.Consumed
	s.SkippedNoDate += other.SkippedNoDate
	s.SkippedNoScore += other.SkippedNoScore
	s.SkippedOutOfWindow += other.SkippedOutOfWindow
	s.UnknownIdentity += other.UnknownIdentity
	s.DateConflicts += other.DateConflicts
}

// Skipped returns the total number of excluded records.
func (s Stats) Skipped() int {
	return s.SkippedNoDate + s.SkippedNoScore + s.SkippedOutOfWindow
}
