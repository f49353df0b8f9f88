// Package tracker follows one booking's status for the visitor who made it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/state"
)

const DefaultInterval = 3 * time.Second

// Lookup is the public single-booking read.
type Lookup interface {
	Get(ctx context.Context, id string) (bookings.Booking, error)
}

// StatusChange is emitted when a poll observes a status different from the
// previous poll. The first observation has an empty From.
type StatusChange struct {
	BookingID    string
	ServiceTitle string
	From, To     bookings.Status
	ObservedAt   time.Time
}

type Sink interface {
	StatusChanged(ctx context.Context, ch StatusChange) error
	TrackingEnded(ctx context.Context, bookingID string) error
}

type Tracker struct {
	Lookup   Lookup
	Store    state.Store
	Profile  string
	Interval time.Duration
	// IsNotFound decides which lookup errors mean the booking is gone for good.
	IsNotFound func(error) bool
	Sink       Sink // optional

	mu      sync.RWMutex
	current *bookings.StatusView
}

func (t *Tracker) key() string { return state.LastBookingKey(t.Profile) }

// Remember makes id the booking this client follows. Called after a
// successful booking submission.
func (t *Tracker) Remember(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("remember booking: empty id")
	}
	if err := t.Store.Set(ctx, t.key(), id); err != nil {
		return fmt.Errorf("remember booking: %w", err)
	}
	return nil
}

// Remembered returns the tracked booking id, if any.
func (t *Tracker) Remembered(ctx context.Context) (string, bool, error) {
	return t.Store.Get(ctx, t.key())
}

// Forget drops the tracked booking and its last known status.
func (t *Tracker) Forget(ctx context.Context) error {
	t.setCurrent(nil)
	return t.Store.Delete(ctx, t.key())
}

// Current is the last observed status, absent when nothing is tracked.
func (t *Tracker) Current() (bookings.StatusView, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return bookings.StatusView{}, false
	}
	return *t.current, true
}

func (t *Tracker) setCurrent(v *bookings.StatusView) {
	t.mu.Lock()
	t.current = v
	t.mu.Unlock()
}

// Run polls until ctx is cancelled or the booking turns out to be gone.
// It returns nil straight away when no booking is remembered. Errors other
// than not-found are logged and the loop keeps going.
func (t *Tracker) Run(ctx context.Context) error {
	id, ok, err := t.Remembered(ctx)
	if err != nil {
		return fmt.Errorf("load tracked booking: %w", err)
	}
	if !ok || id == "" {
		return nil
	}

	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if done := t.poll(ctx, id); done {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check runs a single poll, for callers that do their own scheduling.
// ok is false when nothing is tracked, including when this poll found the
// booking gone.
func (t *Tracker) Check(ctx context.Context) (bookings.StatusView, bool, error) {
	id, ok, err := t.Remembered(ctx)
	if err != nil {
		return bookings.StatusView{}, false, fmt.Errorf("load tracked booking: %w", err)
	}
	if !ok || id == "" {
		return bookings.StatusView{}, false, nil
	}
	t.poll(ctx, id)
	v, ok := t.Current()
	return v, ok, nil
}

// poll reports true once tracking has ended.
func (t *Tracker) poll(ctx context.Context, id string) bool {
	b, err := t.Lookup.Get(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if t.IsNotFound != nil && t.IsNotFound(err) {
			log.Printf("tracker: booking %s no longer exists, forgetting it", id)
			if err := t.Forget(ctx); err != nil {
				log.Printf("tracker: forget %s: %v", id, err)
			}
			if t.Sink != nil {
				if err := t.Sink.TrackingEnded(ctx, id); err != nil {
					log.Printf("tracker: sink: %v", err)
				}
			}
			return true
		}
		log.Printf("tracker: fetch booking %s: %v", id, err)
		return false
	}

	v := b.View()
	if v.BookingID == "" {
		v.BookingID = bookings.ID(id)
	}
	prev, had := t.Current()
	t.setCurrent(&v)

	if t.Sink != nil && (!had || prev.Status != v.Status) {
		ch := StatusChange{BookingID: id, ServiceTitle: v.ServiceTitle, To: v.Status, ObservedAt: time.Now().UTC()}
		if had {
			ch.From = prev.Status
		}
		if err := t.Sink.StatusChanged(ctx, ch); err != nil {
			log.Printf("tracker: sink: %v", err)
		}
	}
	return false
}
