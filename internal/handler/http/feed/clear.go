package feed

import (
	"net/http"

	"tagfeed/internal/handler/http/respond"
)

type ClearCacheHandler struct{ Svc Service }

// ServeHTTP invalidates cached feed data for the named URL. Invalidation
// drops the named snapshot and wipes both caches; the response is 200 even
// when nothing was cached. A missing url parameter is a client error.
func (h ClearCacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respond.Error(w, http.StatusBadRequest, errMissingURL)
		return
	}

	if err := h.Svc.Invalidate(r.Context(), url); err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, clearResponse{Status: "ok", URL: url})
}

type clearResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}
