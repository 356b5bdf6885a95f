package rss

import "errors"

var (
	// ErrInvalidURL indicates the requested feed URL is missing, malformed,
	// or uses a scheme other than http/https.
	ErrInvalidURL = errors.New("invalid feed URL")

	// ErrPrivateIP indicates the requested feed URL resolves to a private,
	// loopback, or link-local address.
	ErrPrivateIP = errors.New("feed URL resolves to private IP")

	// ErrFetchFailed indicates the upstream feed could not be fetched or parsed.
	ErrFetchFailed = errors.New("feed fetch failed")
)
