package store

import "errors"

// Sentinel kinds for scan errors.
var (
	ErrListCollections           = errors.New("listing sale collections failed")
	ErrTooManyCollectionFailures = errors.New("too many collection failures")
)
