package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmagente/ranking/internal/adapters/http/api"
	"github.com/crmagente/ranking/internal/adapters/store"
	"github.com/crmagente/ranking/internal/app"
	"github.com/crmagente/ranking/internal/domain/ranking"
	"github.com/crmagente/ranking/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// mockService returns a canned result and records the params it saw.
type mockService struct {
	result *app.Result
	cached bool
	err    error
	last   app.Params
}

func (m *mockService) Ranking(_ context.Context, p app.Params) (*app.Result, bool, error) {
	m.last = p
	if m.err != nil {
		return nil, false, m.err
	}
	return m.result, m.cached, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixtureResult() *app.Result {
	entries := []ranking.Entry{
		{
			IdentityKey:       "ingrid garcia",
			DisplayName:       "Ingrid García",
			SumScore:          dec("1.65"),
			AverageScore:      dec("0.825"),
			SaleCount:         2,
			OriginCollections: []string{"costumers", "costumers_2"},
			Team:              "norte",
		},
		{
			IdentityKey:       "marco polo",
			DisplayName:       "Marco Polo",
			SumScore:          dec("1"),
			AverageScore:      dec("1"),
			SaleCount:         1,
			OriginCollections: []string{"costumers"},
		},
	}
	return &app.Result{
		Entries:    entries,
		Teams:      ranking.RollupTeams(entries),
		Stats:      ranking.Stats{Consumed: 3, SkippedNoScore: 1},
		Report:     store.Report{ScanID: "scan-1", Collections: []string{"costumers", "costumers_2"}, Records: 4},
		ComputedAt: time.Date(2025, 12, 18, 12, 0, 0, 0, time.UTC),
	}
}

func serve(svc api.Dependencies, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(svc, 100).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleGetRanking(t *testing.T) {
	Convey("Given a ranking API over a mock service", t, func() {
		svc := &mockService{result: fixtureResult()}

		Convey("When the ranking is requested", func() {
			rec := serve(svc, "/api/ranking?fechaInicio=2025-12-01&fechaFin=2025-12-31")

			var payload struct {
				Ranking []map[string]any `json:"ranking"`
				Total   int              `json:"total"`
				Debug   map[string]any   `json:"debug"`
			}
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)

			Convey("Then rows should carry names, rounded points, and origins", func() {
				So(payload.Total, ShouldEqual, 2)
				So(payload.Ranking, ShouldHaveLength, 2)

				top := payload.Ranking[0]
				So(top["nombre"], ShouldEqual, "Ingrid García")
				So(top["nombreNormalizado"], ShouldEqual, "ingrid garcia")
				So(top["puntos"], ShouldEqual, 1.65)
				So(top["ventas"], ShouldEqual, 2)
				So(top["team"], ShouldEqual, "norte")
				So(payload.Debug, ShouldBeNil)
			})

			Convey("And params should pass through to the service", func() {
				So(svc.last.FechaInicio, ShouldEqual, "2025-12-01")
				So(svc.last.FechaFin, ShouldEqual, "2025-12-31")
				So(svc.last.Debug, ShouldBeFalse)
			})
		})

		Convey("When an agente filter is given", func() {
			rec := serve(svc, "/api/ranking?agente=INGRID%20GARC%C3%8DA")

			var payload struct {
				Ranking []map[string]any `json:"ranking"`
				Total   int              `json:"total"`
			}
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)

			Convey("Then only the matching identity should remain", func() {
				So(payload.Total, ShouldEqual, 1)
				So(payload.Ranking[0]["nombreNormalizado"], ShouldEqual, "ingrid garcia")
			})
		})

		Convey("When a limit truncates the ranking", func() {
			rec := serve(svc, "/api/ranking?limit=1")

			var payload struct {
				Ranking []map[string]any `json:"ranking"`
				Total   int              `json:"total"`
			}
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)

			Convey("Then total should still count every entry", func() {
				So(payload.Ranking, ShouldHaveLength, 1)
				So(payload.Total, ShouldEqual, 2)
			})
		})

		Convey("When debug diagnostics are requested", func() {
			svc.cached = true
			rec := serve(svc, "/api/ranking?debug=true")

			var payload struct {
				Debug map[string]any `json:"debug"`
			}
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)

			Convey("Then scan and exclusion diagnostics should be attached", func() {
				So(svc.last.Debug, ShouldBeTrue)
				So(payload.Debug["scanId"], ShouldEqual, "scan-1")
				So(payload.Debug["cached"], ShouldEqual, true)
				stats := payload.Debug["stats"].(map[string]any)
				So(stats["consumed"], ShouldEqual, 3)
				So(stats["skippedNoScore"], ShouldEqual, 1)
			})
		})

		Convey("When the limit is not a number", func() {
			rec := serve(svc, "/api/ranking?limit=abc")

			Convey("Then the request should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the configured cap", func() {
			rec := serve(svc, "/api/ranking?limit=101")

			Convey("Then the request should be rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service rejects the date range", func() {
			svc.err = app.ErrInvalidDateRange
			rec := serve(svc, "/api/ranking?fechaInicio=2025-12-31&fechaFin=2025-12-01")

			Convey("Then the API should answer 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the scan fails systemically", func() {
			svc.err = errors.New("too many collection failures")
			rec := serve(svc, "/api/ranking")

			Convey("Then the API should answer 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the method is not GET", func() {
			mux := http.NewServeMux()
			api.NewServer(svc, 100).Register(mux)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ranking", nil))

			Convey("Then the route should not match", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHandleGetTeams(t *testing.T) {
	Convey("Given a teams API over a mock service", t, func() {
		svc := &mockService{result: fixtureResult()}

		Convey("When team totals are requested", func() {
			rec := serve(svc, "/api/ranking/teams?fechaInicio=2025-12-01&fechaFin=2025-12-31")

			var payload struct {
				Teams []map[string]any `json:"teams"`
				Total int              `json:"total"`
			}
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &payload), ShouldBeNil)

			Convey("Then teams should be rolled up with the unassigned bucket last", func() {
				So(payload.Total, ShouldEqual, 2)
				So(payload.Teams[0]["team"], ShouldEqual, "norte")
				So(payload.Teams[0]["ventas"], ShouldEqual, 2)
				So(payload.Teams[1]["team"], ShouldEqual, "")
			})
		})
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given the API server", t, func() {
		svc := &mockService{result: fixtureResult()}

		Convey("When the health endpoint is probed", func() {
			rec := serve(svc, "/healthz")

			Convey("Then it should report ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
			})
		})
	})
}
