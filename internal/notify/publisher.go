// Package notify carries booking status changes from the tracker to the
// customer: the tracker side publishes, the notifier side consumes.
package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	kafkax "github.com/ariefcatur/go-detailing-bookings/internal/kafka"
	"github.com/ariefcatur/go-detailing-bookings/internal/tracker"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// StatusPublisher is a tracker.Sink that emits envelope-v1 events.
type StatusPublisher struct {
	Producer    Publisher
	ServiceName string
}

var _ tracker.Sink = (*StatusPublisher)(nil)

func (p *StatusPublisher) StatusChanged(ctx context.Context, ch tracker.StatusChange) error {
	payload := bookings.BookingStatusChangedPayload{
		BookingID:    ch.BookingID,
		ServiceTitle: ch.ServiceTitle,
		From:         ch.From,
		To:           ch.To,
	}
	p.publish(bookings.EventBookingStatusChanged, ch.BookingID, ch.ObservedAt, payload)
	return nil
}

func (p *StatusPublisher) TrackingEnded(ctx context.Context, bookingID string) error {
	payload := bookings.BookingTrackingEndedPayload{BookingID: bookingID, Reason: "NOT_FOUND"}
	p.publish(bookings.EventBookingTrackingEnded, bookingID, time.Now().UTC(), payload)
	return nil
}

func (p *StatusPublisher) publish(eventType, bookingID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	ev := bookings.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at,
		Producer:      p.ServiceName,
		CorrelationID: bookingID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Producer.Publish(bookings.PartitionKey(bookingID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafkago.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
