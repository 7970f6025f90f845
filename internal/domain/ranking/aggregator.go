package ranking

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crmagente/ranking/internal/domain/identity"
	"github.com/crmagente/ranking/internal/domain/record"
	"github.com/crmagente/ranking/internal/domain/resolve"
)

// nameStat tracks how often one raw spelling of a name was seen and the
// scan sequence of its first occurrence.
type nameStat struct {
	count    int
	firstSeq int64
}

// bucket is the running total for one identity.
type bucket struct {
	sum     decimal.Decimal
	count   int
	origins map[string]struct{}
	names   map[string]*nameStat
}

func newBucket() *bucket {
	return &bucket{
		sum:     decimal.Zero,
		origins: make(map[string]struct{}),
		names:   make(map[string]*nameStat),
	}
}

// Accumulator folds sale records into per-identity partial totals.
// It is NOT safe for concurrent use: each aggregation worker owns one
// accumulator and partials are combined afterwards with Merge, so no
// lock is held on a shared map during the scan.
type Accumulator struct {
	window  record.Window
	buckets map[identity.Key]*bucket
	stats   Stats
}

// NewAccumulator creates an empty accumulator for the given window.
func NewAccumulator(window record.Window) *Accumulator {
	return &Accumulator{
		window:  window,
		buckets: make(map[identity.Key]*bucket),
	}
}

// Add folds one record into the partial totals. Records with no
// resolvable date or score, or with a date outside the window, are
// excluded and counted; they never contribute zeros.
func (a *Accumulator) Add(s record.Sale) {
	day, conflict, ok := resolve.SaleDate(s)
	if conflict {
		a.stats.DateConflicts++
	}
	if !ok {
		a.stats.SkippedNoDate++
		return
	}
	if !a.window.Contains(day) {
		a.stats.SkippedOutOfWindow++
		return
	}

	score, ok := resolve.Score(s)
	if !ok {
		a.stats.SkippedNoScore++
		return
	}

	raw, ok := resolve.AgentName(s)
	if !ok {
		a.stats.UnknownIdentity++
	}
	key := identity.Normalize(raw)

	b := a.buckets[key]
	if b == nil {
		b = newBucket()
		a.buckets[key] = b
	}
	b.sum = b.sum.Add(score)
	b.count++
	b.origins[s.Origin] = struct{}{}
	if raw != "" {
		ns := b.names[raw]
		if ns == nil {
			b.names[raw] = &nameStat{count: 1, firstSeq: s.Seq}
		} else {
			ns.count++
			if s.Seq < ns.firstSeq {
				ns.firstSeq = s.Seq
			}
		}
	}
	a.stats.Consumed++
}

// Stats returns the accumulator's exclusion counters.
func (a *Accumulator) Stats() Stats {
	return a.stats
}

// Merge combines partial accumulators into the final ordered ranking.
// The result is deterministic for a given record set regardless of how
// records were distributed across accumulators or in which order they
// arrived, except for the documented display-name first-occurrence rule,
// which is anchored to the scanner-issued sequence rather than arrival.
func Merge(accs ...*Accumulator) ([]Entry, Stats) {
	merged := make(map[identity.Key]*bucket)
	var stats Stats

	for _, a := range accs {
		if a == nil {
			continue
		}
		stats.merge(a.stats)
		for key, part := range a.buckets {
			b := merged[key]
			if b == nil {
				b = newBucket()
				merged[key] = b
			}
			b.sum = b.sum.Add(part.sum)
			b.count += part.count
			for origin := range part.origins {
				b.origins[origin] = struct{}{}
			}
			for raw, ns := range part.names {
				have := b.names[raw]
				if have == nil {
					b.names[raw] = &nameStat{count: ns.count, firstSeq: ns.firstSeq}
					continue
				}
				have.count += ns.count
				if ns.firstSeq < have.firstSeq {
					have.firstSeq = ns.firstSeq
				}
			}
		}
	}

	entries := make([]Entry, 0, len(merged))
	for key, b := range merged {
		entries = append(entries, Entry{
			IdentityKey:       key,
			DisplayName:       displayName(key, b.names),
			SumScore:          b.sum,
			AverageScore:      b.sum.Div(decimal.NewFromInt(int64(b.count))),
			SaleCount:         b.count,
			OriginCollections: sortedOrigins(b.origins),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if cmp := entries[i].SumScore.Cmp(entries[j].SumScore); cmp != 0 {
			return cmp > 0
		}
		if entries[i].SaleCount != entries[j].SaleCount {
			return entries[i].SaleCount > entries[j].SaleCount
		}
		return strings.ToLower(entries[i].DisplayName) < strings.ToLower(entries[j].DisplayName)
	})

	return entries, stats
}

// displayName picks the most frequent raw spelling; ties go to the
// spelling first seen in scan order.
func displayName(key identity.Key, names map[string]*nameStat) string {
	best := ""
	var bestStat *nameStat
	for raw, ns := range names {
		switch {
		case bestStat == nil,
			ns.count > bestStat.count,
			ns.count == bestStat.count && ns.firstSeq < bestStat.firstSeq:
			best, bestStat = raw, ns
		}
	}
	if best == "" {
		return string(key)
	}
	return best
}

func sortedOrigins(origins map[string]struct{}) []string {
	out := make([]string, 0, len(origins))
	for origin := range origins {
		out = append(out, origin)
	}
	sort.Strings(out)
	return out
}
