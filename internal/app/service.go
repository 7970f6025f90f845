// Package app orchestrates one ranking computation: scan the drifted
// sales collections, aggregate per identity, join the identity
// registry, and roll totals up per team, with a TTL cache in front.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/crmagente/ranking/internal/adapters/cache"
	"github.com/crmagente/ranking/internal/adapters/registry"
	"github.com/crmagente/ranking/internal/adapters/store"
	"github.com/crmagente/ranking/internal/domain/ranking"
	"github.com/crmagente/ranking/internal/domain/record"
	"github.com/crmagente/ranking/pkg/logger"
	"github.com/crmagente/ranking/pkg/metrics"
)

// Result is one fully computed ranking, the unit stored in the cache.
// Entries hold the complete unfiltered ranking; presentation concerns
// (agente filter, limit, rounding) belong to the HTTP layer.
type Result struct {
	Entries    []ranking.Entry
	Teams      []ranking.TeamTotal
	Stats      ranking.Stats
	Report     store.Report
	ComputedAt time.Time
}

// Service computes rankings on demand.
type Service struct {
	scanner   store.Scanner
	directory registry.Directory
	cache     *cache.Cache[*Result]
	workers   int
	timeout   time.Duration
	log       logger.Logger
	now       func() time.Time
}

// New wires a ranking service. Scanner and directory are required.
func New(scanner store.Scanner, directory registry.Directory, opts ...Option) *Service {
	s := &Service{
		scanner:   scanner,
		directory: directory,
		workers:   runtime.NumCPU(),
		timeout:   15 * time.Second,
		log:       logger.Named("app"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New[*Result]()
	}
	return s
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	s.cache.Close()
}

// Ranking answers one query. The boolean reports whether the result was
// served from cache. Debug queries always recompute and overwrite the
// cached entry for the same key.
func (s *Service) Ranking(ctx context.Context, p Params) (*Result, bool, error) {
	if p.Limit < 0 {
		return nil, false, fmt.Errorf("%w: %d", ErrInvalidLimit, p.Limit)
	}
	window, err := p.Window(s.now())
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := p.CacheKey(window)
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*Result, error) {
		return s.compute(ctx, window)
	}, p.Debug)
}

func (s *Service) compute(ctx context.Context, window record.Window) (*Result, error) {
	start := s.now()

	entries, stats, report, err := s.aggregate(ctx, window)
	if err != nil {
		return nil, err
	}

	s.join(ctx, entries)
	teams := ranking.RollupTeams(entries)

	metrics.ObserveAggregationDuration(float64(s.now().Sub(start).Milliseconds()))
	metrics.UpdateRankingSize(len(entries))
	metrics.RecordRecordSkipped(metrics.SkipReasonNoDate, stats.SkippedNoDate)
	metrics.RecordRecordSkipped(metrics.SkipReasonNoScore, stats.SkippedNoScore)
	metrics.RecordRecordSkipped(metrics.SkipReasonOutOfWindow, stats.SkippedOutOfWindow)
	metrics.RecordDateConflicts(stats.DateConflicts)

	s.log.Info(ctx, "ranking computed",
		logger.String("scan_id", report.ScanID),
		logger.Int("entries", len(entries)),
		logger.Int64("records", report.Records),
		logger.Int("failed_collections", len(report.Failures)),
		logger.Duration("took", s.now().Sub(start)),
	)

	return &Result{
		Entries:    entries,
		Teams:      teams,
		Stats:      stats,
		Report:     report,
		ComputedAt: s.now().UTC(),
	}, nil
}

// aggregate fans scanned batches out to a fixed pool of accumulators and
// merges their partial totals. Each worker owns its accumulator, so the
// hot path takes no locks.
func (s *Service) aggregate(ctx context.Context, window record.Window) ([]ranking.Entry, ranking.Stats, store.Report, error) {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}

	batches := make(chan record.Batch, workers)
	accs := make([]*ranking.Accumulator, workers)
	var wg sync.WaitGroup
	for i := range accs {
		accs[i] = ranking.NewAccumulator(window)
		wg.Add(1)
		go func(acc *ranking.Accumulator) {
			defer wg.Done()
			for batch := range batches {
				for _, sale := range batch.Records {
					acc.Add(sale)
				}
			}
		}(accs[i])
	}

	report, err := s.scanner.Scan(ctx, window, func(b record.Batch) {
		batches <- b
	})
	close(batches)
	wg.Wait()
	if err != nil {
		return nil, ranking.Stats{}, store.Report{}, err
	}

	entries, stats := ranking.Merge(accs...)
	return entries, stats, report, nil
}

// join attaches team and supervisor labels from the identity registry.
// A registry outage degrades the response to an unjoined ranking rather
// than failing the whole request.
func (s *Service) join(ctx context.Context, entries []ranking.Entry) {
	snap, err := s.directory.Snapshot(ctx)
	if err != nil {
		metrics.RecordRegistryLookupFailure()
		s.log.Warn(ctx, "registry unavailable, serving unjoined ranking", logger.Error(err))
		return
	}
	for i := range entries {
		if agent, ok := snap[entries[i].IdentityKey]; ok {
			entries[i].Team = agent.Team
			entries[i].Supervisor = agent.Supervisor
		}
	}
}
