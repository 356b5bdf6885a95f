package fetcher

import "errors"

var (
	// ErrTooManyRedirects indicates the redirect chain exceeded MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrTimeout indicates the fetch exceeded the configured per-request timeout.
	ErrTimeout = errors.New("content fetch timed out")

	// ErrBodyTooLarge indicates the response body exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrNoContent indicates readability extraction produced no usable text.
	ErrNoContent = errors.New("no readable content")
)
