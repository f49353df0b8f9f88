package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	kafkax "github.com/ariefcatur/go-detailing-bookings/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
)

// Deduper reports whether an event id is being processed for the first time.
// Release undoes the mark so a redelivered event is handled again.
type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// Notification is the customer-facing message derived from an event.
type Notification struct {
	BookingID string
	Text      string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.Printf("notify booking=%s: %s", n.BookingID, n.Text)
	return nil
}

type Service struct {
	Dedup    Deduper
	Notifier Notifier
}

// HandleStatusEvent is installed as the consumer handler.
func (s *Service) HandleStatusEvent(ctx context.Context, m kafkago.Message) error {
	var env bookings.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: log and let the offset move on
		log.Printf("notify: undecodable event at offset %d: %v", m.Offset, err)
		return nil
	}

	n, ok, err := Render(env)
	if err != nil {
		log.Printf("notify: event %s: %v", env.EventID, err)
		return nil
	}
	if !ok {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if !first {
			return nil
		}
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		if s.Dedup != nil {
			if rerr := s.Dedup.Release(ctx, env.EventID); rerr != nil {
				log.Printf("notify: release %s: %v", env.EventID, rerr)
			}
		}
		return fmt.Errorf("notify booking %s: %w", n.BookingID, err)
	}
	return nil
}

// Render turns an envelope into a notification. ok is false for event
// types this service ignores.
func Render(env bookings.Envelope) (Notification, bool, error) {
	switch env.EventType {
	case bookings.EventBookingStatusChanged:
		p, err := kafkax.UnwrapPayload[bookings.BookingStatusChangedPayload](env.Payload)
		if err != nil {
			return Notification{}, false, err
		}
		return Notification{BookingID: p.BookingID, Text: statusText(p)}, true, nil
	case bookings.EventBookingTrackingEnded:
		p, err := kafkax.UnwrapPayload[bookings.BookingTrackingEndedPayload](env.Payload)
		if err != nil {
			return Notification{}, false, err
		}
		return Notification{BookingID: p.BookingID, Text: "Your booking is no longer on file."}, true, nil
	}
	return Notification{}, false, nil
}

func statusText(p bookings.BookingStatusChangedPayload) string {
	title := p.ServiceTitle
	if title == "" {
		title = bookings.GeneralInquiry
	}
	switch p.To {
	case bookings.StatusPending:
		return fmt.Sprintf("%s: we received your booking and will confirm soon.", title)
	case bookings.StatusInProgress:
		return fmt.Sprintf("%s: work on your vehicle has started.", title)
	case bookings.StatusFinished:
		return fmt.Sprintf("%s: all done, thanks for choosing us!", title)
	}
	return fmt.Sprintf("%s: status is now %s.", title, p.To)
}
