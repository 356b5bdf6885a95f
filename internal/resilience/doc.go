// Package resilience groups the fault tolerance primitives used around
// external calls: circuit breakers for the classifier APIs, feed origins and
// the key-value store, and retry with exponential backoff for transient
// failures.
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchFeed()
//	})
//
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    return fetchOnce()
//	})
package resilience
