package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/crmagente/ranking/internal/domain/record"
	"github.com/crmagente/ranking/pkg/logger"
	"github.com/crmagente/ranking/pkg/metrics"
)

const (
	defaultPrefix      = "costumers"
	defaultMaxParallel = 4
	defaultMaxFailed   = 1
)

// MongoScanner implements Scanner against a MongoDB database.
type MongoScanner struct {
	db          *mongo.Database
	prefix      string
	maxParallel int
	maxFailed   int

	// Overridable backends so scan orchestration is testable without a
	// live server.
	listFn  func(ctx context.Context) ([]string, error)
	fetchFn func(ctx context.Context, collection string, window record.Window) ([]bson.M, error)

	log logger.Logger
}

// NewMongoScanner creates a scanner over db with configuration options.
func NewMongoScanner(db *mongo.Database, opts ...Option) *MongoScanner {
	s := &MongoScanner{
		db:          db,
		prefix:      defaultPrefix,
		maxParallel: defaultMaxParallel,
		maxFailed:   defaultMaxFailed,
		log:         logger.Get().Named("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.listFn == nil {
		s.listFn = s.listCollections
	}
	if s.fetchFn == nil {
		s.fetchFn = s.fetchCollection
	}
	return s
}

// Scan fans out one filtered query per matching collection, bounded by
// maxParallel. Collections that fail are recorded as partial failures
// until maxFailed is exceeded, at which point the whole scan fails.
// A context deadline expiring always fails the scan; no partial result
// is reported as success.
func (s *MongoScanner) Scan(ctx context.Context, window record.Window, sink func(record.Batch)) (Report, error) {
	start := time.Now()
	report := Report{ScanID: uuid.NewString()}

	names, err := s.listFn(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrListCollections, err)
	}
	sort.Strings(names)

	var (
		mu       sync.Mutex
		scanned  []string
		failures []CollectionFailure
		seq      atomic.Int64
		emitted  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, name := range names {
		name := name
		g.Go(func() error {
			docs, err := s.fetchFn(gctx, name, window)
			if err != nil {
				if gctx.Err() != nil {
					// Deadline or cancellation is systemic, not a
					// per-collection failure.
					return gctx.Err()
				}
				metrics.RecordCollectionFailure()
				s.log.Error(gctx, "collection scan failed",
					logger.String("scanId", report.ScanID),
					logger.String("collection", name),
					logger.Error(err),
				)
				mu.Lock()
				failures = append(failures, CollectionFailure{Collection: name, Reason: err.Error()})
				exceeded := len(failures) > s.maxFailed
				mu.Unlock()
				if exceeded {
					return fmt.Errorf("%w: threshold %d", ErrTooManyCollectionFailures, s.maxFailed)
				}
				return nil
			}

			batch := record.Batch{Collection: name, Records: make([]record.Sale, len(docs))}
			for i, doc := range docs {
				batch.Records[i] = record.Sale{Doc: doc, Origin: name, Seq: seq.Add(1)}
			}

			metrics.RecordCollectionScanned()
			metrics.RecordRecordsScanned(len(docs))
			emitted.Add(int64(len(docs)))
			mu.Lock()
			scanned = append(scanned, name)
			mu.Unlock()

			if len(batch.Records) > 0 {
				sink(batch)
			}
			return nil
		})
	}

	err = g.Wait()
	sort.Strings(scanned)
	report.Collections = scanned
	report.Failures = failures
	report.Records = emitted.Load()
	report.Duration = time.Since(start)
	metrics.ObserveScanDuration(float64(report.Duration.Milliseconds()))

	if err != nil {
		return report, err
	}

	s.log.Debug(ctx, "scan completed",
		logger.String("scanId", report.ScanID),
		logger.Int("collections", len(scanned)),
		logger.Int("failures", len(failures)),
		logger.Int64("records", report.Records),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}

// listCollections enumerates the base collection and its sharded
// variants by prefix, case-insensitively.
func (s *MongoScanner) listCollections(ctx context.Context) ([]string, error) {
	filter := bson.M{"name": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(s.prefix),
		Options: "i",
	}}
	names, err := s.db.ListCollectionNames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list collection names: %w", err)
	}
	return names, nil
}

// fetchCollection runs one filtered query. The predicate is a coarse
// server-side prefilter across every historical date field; authoritative
// window filtering happens after date resolution in the aggregator.
func (s *MongoScanner) fetchCollection(ctx context.Context, collection string, window record.Window) ([]bson.M, error) {
	cur, err := s.db.Collection(collection).Find(ctx, windowFilter(window))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

// windowFilter matches each date field both as an ISO string and as a
// BSON date; collections drifted between the two representations. The
// string bound is exclusive on the day after the window so timestamp
// strings on the last day ("2025-12-31T18:45:00Z") still match; ISO
// ordering makes the lexical range equivalent to the chronological one.
func windowFilter(w record.Window) bson.M {
	// Timestamps run to the end of the last day of the inclusive window.
	endTime := w.End.AddDate(0, 0, 1)
	startStr := w.Start.Format("2006-01-02")
	endStr := endTime.Format("2006-01-02")

	or := bson.A{}
	for _, field := range []string{"dia_venta", "fecha_venta", "fechaVenta", "createdAt"} {
		or = append(or,
			bson.M{field: bson.M{"$gte": startStr, "$lt": endStr}},
			bson.M{field: bson.M{"$gte": w.Start, "$lt": endTime}},
		)
	}
	return bson.M{"$or": or}
}
