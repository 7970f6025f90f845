// Package identity canonicalizes agent display names into stable comparison
// keys. Sale records accumulated over years spell the same agent many ways
// ("INGRID GARCIA", "Ingrid García", "ingrid  garcia"); aggregation must
// treat all of them as one identity.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key is a normalized, comparison-safe form of an agent name.
type Key string

// Unknown is the reserved bucket for records whose identity cannot be
// resolved. It never collides with a real agent because Normalize output
// for non-empty input always derives from the input itself.
const Unknown Key = "unknown"

// stripMarks decomposes to NFD, drops combining marks, and recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a raw agent name: lower-cased, diacritics
// stripped, internal whitespace collapsed to single spaces, trimmed.
// It is pure, total and idempotent. Empty or whitespace-only input maps
// to Unknown.
func Normalize(raw string) Key {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Unknown
	}

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return Unknown
	}
	return Key(s)
}
