package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
)

// BookingRemote lists are operator-only; Get and Create are public.
type BookingRemote struct{ C *Client }

func (r BookingRemote) List(ctx context.Context, auth string) ([]bookings.Booking, error) {
	var out []bookings.Booking
	if err := r.C.sendJSON(ctx, http.MethodGet, "/api/bookings", auth, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get is the public single-record status lookup.
func (r BookingRemote) Get(ctx context.Context, id string) (bookings.Booking, error) {
	var out bookings.Booking
	err := r.C.sendJSON(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (r BookingRemote) Create(ctx context.Context, auth string, d bookings.BookingDraft) (bookings.Booking, error) {
	var out bookings.Booking
	err := r.C.sendJSON(ctx, http.MethodPost, "/api/bookings", auth, d, &out)
	return out, err
}

func (r BookingRemote) Update(ctx context.Context, auth, id string, p bookings.StatusPatch) error {
	return r.C.sendJSON(ctx, http.MethodPut, "/api/bookings/"+url.PathEscape(id), auth, p, nil)
}

func (r BookingRemote) Delete(ctx context.Context, auth, id string) error {
	return r.C.sendJSON(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(id), auth, nil, nil)
}
