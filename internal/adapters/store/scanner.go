// Package store scans the document store's sale collections. The base
// collection was sharded over time into suffixed variants, so one logical
// scan fans out across every collection matching the configured prefix.
package store

import (
	"context"
	"time"

	"github.com/crmagente/ranking/internal/domain/record"
)

// CollectionFailure records one collection that failed to respond.
// Failures are partial by default; the scan keeps going until the
// configured threshold is exceeded.
type CollectionFailure struct {
	Collection string `json:"collection"`
	Reason     string `json:"reason"`
}

// Report summarizes one completed scan.
type Report struct {
	// ScanID correlates log lines of one scan run.
	ScanID string `json:"scanId"`
	// Collections lists every collection that responded, sorted.
	Collections []string `json:"collections"`
	// Failures lists collections that errored or timed out. No ordering
	// guarantee exists here.
	Failures []CollectionFailure `json:"failures,omitempty"`
	// Records counts the sale records emitted to the sink.
	Records int64 `json:"records"`

	Duration time.Duration `json:"-"`
}

// Scanner streams matching sale records in per-collection batches.
// sink is called from concurrent scan workers, once per collection that
// returned records; callers must hand in something safe for concurrent
// use (typically a channel send).
type Scanner interface {
	Scan(ctx context.Context, window record.Window, sink func(record.Batch)) (Report, error)
}
