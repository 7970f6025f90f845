// Package record models the loosely-typed sale documents read from the
// document store. Collections evolved independently, so one logical field
// may appear under several historical names; accessors here stay schema
// tolerant and leave interpretation to the resolve package.
package record

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Sale is one sale document plus scan metadata. Doc is read-only; the
// engine never mutates source records.
type Sale struct {
	// Doc is the raw document as decoded by the driver.
	Doc bson.M

	// Origin names the collection the record came from. Attached by the
	// scanner, never a document field.
	Origin string

	// Seq is a scanner-issued monotonic sequence used as the
	// first-occurrence tie-break for display-name selection.
	Seq int64
}

// Batch carries one collection's matching records through the pipeline.
type Batch struct {
	Collection string
	Records    []Sale
}

// Field returns the raw value stored under name, or nil when absent.
// A dotted name ("scores.base") descends into nested documents.
func (s Sale) Field(name string) interface{} {
	if !strings.Contains(name, ".") {
		return s.Doc[name]
	}
	var cur interface{} = s.Doc
	for _, part := range strings.Split(name, ".") {
		switch doc := cur.(type) {
		case bson.M:
			cur = doc[part]
		case map[string]interface{}:
			cur = doc[part]
		case bson.D:
			cur = doc.Map()[part]
		default:
			return nil
		}
	}
	return cur
}

// FirstString returns the first non-empty string value among names, in
// order. Used for priority-ordered identity resolution.
func (s Sale) FirstString(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := s.Field(name).(string); ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// Window is an inclusive calendar-date range. Bounds are UTC midnights.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two calendar dates, normalizing both to
// UTC midnight.
func NewWindow(start, end time.Time) Window {
	return Window{Start: Day(start), End: Day(end)}
}

// Contains reports whether day falls inside the window, inclusive.
func (w Window) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
