package enrich

import "errors"

var (
	// ErrDeadlineExceeded indicates the enrichment pass ran out of time and
	// remaining batches were left unclassified. Already-classified items are
	// still persisted.
	ErrDeadlineExceeded = errors.New("enrichment pass deadline exceeded")
)
