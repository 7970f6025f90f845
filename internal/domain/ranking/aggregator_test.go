package ranking_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/crmagente/ranking/internal/domain/identity"
	"github.com/crmagente/ranking/internal/domain/ranking"
	"github.com/crmagente/ranking/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func december() record.Window {
	return record.NewWindow(
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
}

func TestAccumulatorAndMerge(t *testing.T) {
	Convey("Given the two-collection example records for one agent", t, func() {
		recs := []record.Sale{
			{
				Doc:    bson.M{"agenteNombre": "INGRID.GARCIA", "scores": bson.M{"base": "0.95"}, "dia_venta": "2025-12-05"},
				Origin: "costumers",
				Seq:    1,
			},
			{
				Doc:    bson.M{"agente": "ingrid.garcia", "puntaje": 0.70, "createdAt": "2025-12-06T00:00:00Z"},
				Origin: "costumers_2",
				Seq:    2,
			},
		}

		Convey("When aggregating over December 2025", func() {
			acc := ranking.NewAccumulator(december())
			for _, r := range recs {
				acc.Add(r)
			}
			entries, stats := ranking.Merge(acc)

			Convey("Then both records should merge into one exact entry", func() {
				So(entries, ShouldHaveLength, 1)
				e := entries[0]
				So(e.IdentityKey, ShouldEqual, identity.Key("ingrid.garcia"))
				So(e.SumScore.Equal(decimal.RequireFromString("1.65")), ShouldBeTrue)
				So(e.SaleCount, ShouldEqual, 2)
				So(e.AverageScore.Equal(decimal.RequireFromString("0.825")), ShouldBeTrue)
				So(e.OriginCollections, ShouldResemble, []string{"costumers", "costumers_2"})
				So(stats.Consumed, ShouldEqual, 2)
				So(stats.Skipped(), ShouldEqual, 0)
			})
		})

		Convey("When the records land in different accumulators", func() {
			a := ranking.NewAccumulator(december())
			b := ranking.NewAccumulator(december())
			a.Add(recs[0])
			b.Add(recs[1])
			entries, _ := ranking.Merge(a, b)

			Convey("Then the reduction should produce the same single entry", func() {
				So(entries, ShouldHaveLength, 1)
				So(entries[0].SumScore.Equal(decimal.RequireFromString("1.65")), ShouldBeTrue)
				So(entries[0].OriginCollections, ShouldResemble, []string{"costumers", "costumers_2"})
			})
		})
	})

	Convey("Given records with defects and out-of-window dates", t, func() {
		acc := ranking.NewAccumulator(december())
		acc.Add(record.Sale{Doc: bson.M{"agente": "ana", "puntaje": 1.0, "dia_venta": "2025-11-30"}, Origin: "costumers", Seq: 1})
		acc.Add(record.Sale{Doc: bson.M{"agente": "ana", "puntaje": 1.0}, Origin: "costumers", Seq: 2})
		acc.Add(record.Sale{Doc: bson.M{"agente": "ana", "dia_venta": "2025-12-02"}, Origin: "costumers", Seq: 3})
		acc.Add(record.Sale{Doc: bson.M{"agente": "ana", "puntaje": "n/a", "dia_venta": "2025-12-02"}, Origin: "costumers", Seq: 4})
		acc.Add(record.Sale{Doc: bson.M{"agente": "ana", "puntaje": "2.5", "dia_venta": "2025-12-03"}, Origin: "costumers", Seq: 5})

		entries, stats := ranking.Merge(acc)

		Convey("Then defective records should be excluded, never zeroed", func() {
			So(entries, ShouldHaveLength, 1)
			So(entries[0].SumScore.Equal(decimal.RequireFromString("2.5")), ShouldBeTrue)
			So(entries[0].SaleCount, ShouldEqual, 1)
			So(stats.SkippedOutOfWindow, ShouldEqual, 1)
			So(stats.SkippedNoDate, ShouldEqual, 1)
			So(stats.SkippedNoScore, ShouldEqual, 2)
			So(stats.Consumed, ShouldEqual, 1)
		})
	})

	Convey("Given a record whose identity cannot be resolved", t, func() {
		acc := ranking.NewAccumulator(december())
		acc.Add(record.Sale{Doc: bson.M{"puntaje": 1.5, "dia_venta": "2025-12-10"}, Origin: "costumers", Seq: 1})
		entries, stats := ranking.Merge(acc)

		Convey("Then it should bucket under the reserved unknown key", func() {
			So(entries, ShouldHaveLength, 1)
			So(entries[0].IdentityKey, ShouldEqual, identity.Unknown)
			So(entries[0].DisplayName, ShouldEqual, "unknown")
			So(stats.UnknownIdentity, ShouldEqual, 1)
		})
	})

	Convey("Given conflicting date fields on one record", t, func() {
		acc := ranking.NewAccumulator(december())
		acc.Add(record.Sale{Doc: bson.M{
			"agente":    "bruno",
			"puntaje":   1.0,
			"dia_venta": "2025-12-01",
			"createdAt": "2025-11-28T12:00:00Z",
		}, Origin: "costumers", Seq: 1})
		entries, stats := ranking.Merge(acc)

		Convey("Then the priority winner counts and the conflict is tallied", func() {
			So(entries, ShouldHaveLength, 1)
			So(entries[0].SaleCount, ShouldEqual, 1)
			So(stats.DateConflicts, ShouldEqual, 1)
		})
	})
}

func TestDisplayNameSelection(t *testing.T) {
	Convey("Given one identity observed under several raw spellings", t, func() {
		mk := func(name string, seq int64) record.Sale {
			return record.Sale{
				Doc:    bson.M{"agente": name, "puntaje": 1.0, "dia_venta": "2025-12-10"},
				Origin: "costumers",
				Seq:    seq,
			}
		}

		Convey("When one spelling dominates by frequency", func() {
			acc := ranking.NewAccumulator(december())
			acc.Add(mk("Ingrid Garcia", 1))
			acc.Add(mk("INGRID GARCIA", 2))
			acc.Add(mk("INGRID GARCIA", 3))
			entries, _ := ranking.Merge(acc)

			Convey("Then the most frequent spelling should be displayed", func() {
				So(entries, ShouldHaveLength, 1)
				So(entries[0].DisplayName, ShouldEqual, "INGRID GARCIA")
			})
		})

		Convey("When spellings tie on frequency", func() {
			acc := ranking.NewAccumulator(december())
			acc.Add(mk("ingrid garcía", 7))
			acc.Add(mk("Ingrid Garcia", 3))
			entries, _ := ranking.Merge(acc)

			Convey("Then the spelling first seen in scan order should win", func() {
				So(entries[0].DisplayName, ShouldEqual, "Ingrid Garcia")
			})
		})
	})
}

func TestOrderingDeterminism(t *testing.T) {
	Convey("Given a synthetic record set across collections", t, func() {
		var recs []record.Sale
		agents := []string{"alpha", "bravo", "charlie", "delta", "echo"}
		scores := []string{"0.5", "1.0", "1.5", "0.25", "1.0"}
		seq := int64(0)
		for i, name := range agents {
			for day := 1; day <= i+1; day++ {
				seq++
				recs = append(recs, record.Sale{
					Doc: bson.M{
						"agente":    name,
						"puntaje":   scores[i],
						"dia_venta": time.Date(2025, 12, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
					},
					Origin: "costumers",
					Seq:    seq,
				})
			}
		}

		aggregate := func(rs []record.Sale, workers int) []ranking.Entry {
			accs := make([]*ranking.Accumulator, workers)
			for i := range accs {
				accs[i] = ranking.NewAccumulator(december())
			}
			for i, r := range rs {
				accs[i%workers].Add(r)
			}
			entries, _ := ranking.Merge(accs...)
			return entries
		}

		Convey("When aggregating shuffled copies with varying worker counts", func() {
			baseline := aggregate(recs, 1)

			rng := rand.New(rand.NewSource(42))
			for trial := 0; trial < 5; trial++ {
				shuffled := make([]record.Sale, len(recs))
				copy(shuffled, recs)
				rng.Shuffle(len(shuffled), func(i, j int) {
					shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
				})
				got := aggregate(shuffled, 1+trial)

				Convey("Then trial "+string(rune('A'+trial))+" should match the baseline order", func() {
					So(got, ShouldHaveLength, len(baseline))
					for i := range got {
						So(got[i].IdentityKey, ShouldEqual, baseline[i].IdentityKey)
						So(got[i].SumScore.Equal(baseline[i].SumScore), ShouldBeTrue)
						So(got[i].SaleCount, ShouldEqual, baseline[i].SaleCount)
					}
				})
			}
		})

		Convey("When two agents tie on sumScore", func() {
			acc := ranking.NewAccumulator(december())
			// zed: one sale of 2.0; abe: two sales of 1.0 -> same sum, more sales.
			acc.Add(record.Sale{Doc: bson.M{"agente": "zed", "puntaje": 2.0, "dia_venta": "2025-12-01"}, Origin: "c", Seq: 1})
			acc.Add(record.Sale{Doc: bson.M{"agente": "abe", "puntaje": 1.0, "dia_venta": "2025-12-01"}, Origin: "c", Seq: 2})
			acc.Add(record.Sale{Doc: bson.M{"agente": "abe", "puntaje": 1.0, "dia_venta": "2025-12-02"}, Origin: "c", Seq: 3})
			// cal: same sum and count as zed -> name tie-break.
			acc.Add(record.Sale{Doc: bson.M{"agente": "Cal", "puntaje": 2.0, "dia_venta": "2025-12-03"}, Origin: "c", Seq: 4})
			entries, _ := ranking.Merge(acc)

			Convey("Then saleCount then case-insensitive name should break ties", func() {
				So(entries, ShouldHaveLength, 3)
				So(entries[0].DisplayName, ShouldEqual, "abe")
				So(entries[1].DisplayName, ShouldEqual, "Cal")
				So(entries[2].DisplayName, ShouldEqual, "zed")
			})
		})
	})
}

func TestRollupTeams(t *testing.T) {
	Convey("Given ranked entries with registry-resolved teams", t, func() {
		entries := []ranking.Entry{
			{IdentityKey: "a", DisplayName: "A", SumScore: decimal.RequireFromString("3.0"), SaleCount: 3, Team: "Team Bryan"},
			{IdentityKey: "b", DisplayName: "B", SumScore: decimal.RequireFromString("2.0"), SaleCount: 2, Team: "Team Irania"},
			{IdentityKey: "c", DisplayName: "C", SumScore: decimal.RequireFromString("2.5"), SaleCount: 1, Team: "Team Bryan"},
			{IdentityKey: "d", DisplayName: "D", SumScore: decimal.RequireFromString("9.0"), SaleCount: 9},
		}

		Convey("When rolling up", func() {
			totals := ranking.RollupTeams(entries)

			Convey("Then teams should sum their members and sort deterministically", func() {
				So(totals, ShouldHaveLength, 3)
				So(totals[0].Team, ShouldEqual, "Team Bryan")
				So(totals[0].SumScore.Equal(decimal.RequireFromString("5.5")), ShouldBeTrue)
				So(totals[0].Agents, ShouldEqual, 2)
				So(totals[1].Team, ShouldEqual, "Team Irania")
				So(totals[2].Team, ShouldEqual, "")
				So(totals[2].SaleCount, ShouldEqual, 9)
			})
		})
	})
}
