package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
)

type ReviewRemote struct{ C *Client }

func (r ReviewRemote) List(ctx context.Context, auth string) ([]bookings.Review, error) {
	var out []bookings.Review
	if err := r.C.sendJSON(ctx, http.MethodGet, "/api/reviews", auth, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r ReviewRemote) Create(ctx context.Context, auth string, d bookings.ReviewDraft) (bookings.Review, error) {
	var out bookings.Review
	err := r.C.sendJSON(ctx, http.MethodPost, "/api/reviews", auth, d, &out)
	return out, err
}

// Update always fails: the store has no review edit endpoint.
func (r ReviewRemote) Update(context.Context, string, string, bookings.ReviewPatch) error {
	return errors.ErrUnsupported
}

func (r ReviewRemote) Delete(ctx context.Context, auth, id string) error {
	return r.C.sendJSON(ctx, http.MethodDelete, "/api/reviews/"+url.PathEscape(id), auth, nil, nil)
}
