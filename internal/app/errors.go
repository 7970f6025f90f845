package app

import "errors"

// Sentinel kinds for ranking request errors. Input errors are rejected
// before any scan begins; everything else that escapes this package is
// systemic.
var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidLimit     = errors.New("invalid limit")
)
