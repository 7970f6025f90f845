package ranking

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TeamTotal aggregates entries of one team. Entries whose identity had
// no registry match roll up under the empty team name.
type TeamTotal struct {
	Team      string
	SumScore  decimal.Decimal
	SaleCount int
	Agents    int
}

// RollupTeams groups ranked entries by their resolved team in a second
// pass, after the registry join has populated Entry.Team. Ordering is
// deterministic: sumScore desc, saleCount desc, team name asc, with the
// unassigned group always last.
func RollupTeams(entries []Entry) []TeamTotal {
	totals := make(map[string]*TeamTotal)
	for _, e := range entries {
		t := totals[e.Team]
		if t == nil {
			t = &TeamTotal{Team: e.Team, SumScore: decimal.Zero}
			totals[e.Team] = t
		}
		t.SumScore = t.SumScore.Add(e.SumScore)
		t.SaleCount += e.SaleCount
		t.Agents++
	}

	out := make([]TeamTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team == "" || out[j].Team == "" {
			return out[j].Team == "" && out[i].Team != ""
		}
		if cmp := out[i].SumScore.Cmp(out[j].SumScore); cmp != 0 {
			return cmp > 0
		}
		if out[i].SaleCount != out[j].SaleCount {
			return out[i].SaleCount > out[j].SaleCount
		}
		return strings.ToLower(out[i].Team) < strings.ToLower(out[j].Team)
	})
	return out
}
