package feed

import (
	"net/http"

	"tagfeed/internal/handler/http/middleware"
)

// Register wires the feed endpoints onto the mux. The GET endpoint carries a
// rate limiter because every cache miss triggers an upstream fetch plus a
// classification pass.
func Register(mux *http.ServeMux, svc Service, rateLimiter *middleware.RateLimiter) {
	mux.Handle("GET    /rss", rateLimiter.Middleware(GetHandler{svc}))
	mux.Handle("DELETE /clear-cache", ClearCacheHandler{svc})
}
