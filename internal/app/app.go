// Package app wires the booking client together: one session gate, the
// three store-owned collections and the status tracker.
package app

import (
	"context"
	"errors"
	"log"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/collection"
	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	"github.com/ariefcatur/go-detailing-bookings/internal/httpx"
	"github.com/ariefcatur/go-detailing-bookings/internal/session"
	"github.com/ariefcatur/go-detailing-bookings/internal/state"
	"github.com/ariefcatur/go-detailing-bookings/internal/tracker"
)

type (
	Services = collection.Collection[bookings.Service, bookings.ServiceDraft, bookings.ServicePatch]
	Bookings = collection.Collection[bookings.Booking, bookings.BookingDraft, bookings.StatusPatch]
	Reviews  = collection.Collection[bookings.Review, bookings.ReviewDraft, bookings.ReviewPatch]
)

var (
	// The catalog is public to read; every change needs the operator.
	ServicePolicy = collection.Policy{List: collection.Public, Create: collection.Gated, Update: collection.Gated, Delete: collection.Gated}
	// Anyone may book; only the operator sees the list or touches a booking.
	BookingPolicy = collection.Policy{List: collection.Gated, Create: collection.Public, Update: collection.Gated, Delete: collection.Gated}
	// Anyone may read and write reviews; only the operator removes them.
	ReviewPolicy = collection.Policy{List: collection.Public, Create: collection.Public, Update: collection.Unsupported, Delete: collection.Gated}
)

type App struct {
	API      *httpx.Client
	Gate     *session.Gate
	Services *Services
	Bookings *Bookings
	Reviews  *Reviews
	Tracker  *tracker.Tracker
}

func New(ctx context.Context, cfg config.Config, store state.Store) (*App, error) {
	api := httpx.New(cfg.APIBaseURL, cfg.RequestTimeout)
	gate, err := session.NewGate(ctx, store, cfg.Profile)
	if err != nil {
		return nil, err
	}
	a := &App{
		API:      api,
		Gate:     gate,
		Services: collection.New[bookings.Service, bookings.ServiceDraft, bookings.ServicePatch]("services", httpx.ServiceRemote{C: api}, gate, ServicePolicy),
		Bookings: collection.New[bookings.Booking, bookings.BookingDraft, bookings.StatusPatch]("bookings", httpx.BookingRemote{C: api}, gate, BookingPolicy),
		Reviews:  collection.New[bookings.Review, bookings.ReviewDraft, bookings.ReviewPatch]("reviews", httpx.ReviewRemote{C: api}, gate, ReviewPolicy),
		Tracker: &tracker.Tracker{
			Lookup:     httpx.BookingRemote{C: api},
			Store:      store,
			Profile:    cfg.Profile,
			Interval:   cfg.PollInterval,
			IsNotFound: func(err error) bool { return errors.Is(err, httpx.ErrNotFound) },
		},
	}
	gate.Subscribe(func(authorized bool) {
		if !authorized {
			a.Bookings.Reset()
		}
	})
	return a, nil
}

func (a *App) SignIn(ctx context.Context, username, password string) error {
	return a.Gate.SignIn(ctx, a.API, username, password)
}

// SignOut forgets the token locally. The store is not told.
func (a *App) SignOut(ctx context.Context) error {
	return a.Gate.Logout(ctx)
}

// SubmitBooking sends a visitor's booking and remembers its id so the
// tracker can follow it.
func (a *App) SubmitBooking(ctx context.Context, d bookings.BookingDraft) (bookings.Booking, error) {
	b, err := a.Bookings.Create(ctx, d)
	if err != nil {
		return bookings.Booking{}, err
	}
	if b.ID == "" {
		log.Printf("booking created but store returned no id; status tracking unavailable")
		return b, nil
	}
	if err := a.Tracker.Remember(ctx, string(b.ID)); err != nil {
		log.Printf("booking %s: %v", b.ID, err)
	}
	return b, nil
}

// SetBookingStatus is the operator's status picker.
func (a *App) SetBookingStatus(ctx context.Context, id string, to bookings.Status) error {
	from := to
	if b, ok := a.Bookings.Get(id); ok {
		from = b.Status
	}
	return bookings.ChangeStatus(ctx, a.Bookings, id, from, to)
}

func (a *App) SubmitReview(ctx context.Context, d bookings.ReviewDraft) (bookings.Review, error) {
	return a.Reviews.Create(ctx, d)
}

func (a *App) SearchServices(query string) []bookings.Service {
	return a.Services.Search(query, bookings.ServiceSearchFields)
}

func (a *App) SearchBookings(query string) []bookings.Booking {
	return a.Bookings.Search(query, bookings.BookingSearchFields)
}

// ReviewTitle names the reviewed service from the current catalog mirror.
func (a *App) ReviewTitle(r bookings.Review) string {
	return bookings.ReviewServiceTitle(r, a.Services.Items())
}
