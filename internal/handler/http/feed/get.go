package feed

import (
	"context"
	"errors"
	"net/http"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/handler/http/respond"
	rssUC "tagfeed/internal/usecase/rss"
)

// Service is the use case surface the feed handlers need.
type Service interface {
	Get(ctx context.Context, url string) ([]entity.Item, error)
	TagsOnly(ctx context.Context, url string) ([]entity.Item, error)
	Invalidate(ctx context.Context, url string) error
}

type GetHandler struct{ Svc Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respond.Error(w, http.StatusBadRequest, errMissingURL)
		return
	}

	var (
		items []entity.Item
		err   error
	)
	if r.URL.Query().Get("tagsOnly") == "true" {
		items, err = h.Svc.TagsOnly(r.Context(), url)
	} else {
		items, err = h.Svc.Get(r.Context(), url)
	}
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(items))
}

var errMissingURL = errors.New("url query parameter is required")

// statusFor maps use case errors onto HTTP status codes. Bad input is the
// caller's fault; everything else, upstream fetch failures included, is a
// plain 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rssUC.ErrInvalidURL), errors.Is(err, rssUC.ErrPrivateIP):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
