// Package resolve extracts the logical attributes of a sale record from
// its drifted physical schema. Each attribute has one ordered resolution
// function; callers never branch on field names themselves.
package resolve

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crmagente/ranking/internal/domain/record"
)

// dateFields is the authoritative priority order for the sale date.
// The first field that parses to a valid calendar date wins; later fields
// are never consulted for the result, even when the winner looks odd.
var dateFields = []string{"dia_venta", "fecha_venta", "fechaVenta", "createdAt"}

// SaleDate resolves the single authoritative sale date of a record.
// ok is false when no candidate field is present or none parses; such
// records are excluded upstream, never defaulted to today.
//
// conflict reports whether a lower-priority field parsed to a different
// calendar date than the winner. The winner still stands; the flag only
// feeds a diagnostic counter.
func SaleDate(s record.Sale) (day time.Time, conflict bool, ok bool) {
	winnerAt := -1
	for i, name := range dateFields {
		d, parsed := parseDay(s.Field(name))
		if !parsed {
			continue
		}
		if !ok {
			day, ok, winnerAt = d, true, i
			continue
		}
		if i > winnerAt && !d.Equal(day) {
			conflict = true
		}
	}
	return day, conflict, ok
}

// parseDay coerces one raw field value into a UTC calendar date.
// Strings must be ISO: either date-only (YYYY-MM-DD) or a timestamp whose
// first ten characters are the date; the time and zone are ignored.
func parseDay(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		const dateLen = len("2006-01-02")
		if len(s) < dateLen {
			return time.Time{}, false
		}
		// A longer value must be a timestamp, not arbitrary text after a date.
		if len(s) > dateLen && s[dateLen] != 'T' && s[dateLen] != ' ' {
			return time.Time{}, false
		}
		d, err := time.Parse("2006-01-02", s[:dateLen])
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	case time.Time:
		return record.Day(val), true
	case primitive.DateTime:
		return record.Day(val.Time()), true
	default:
		return time.Time{}, false
	}
}
