package bookings

import (
	"encoding/json"
	"time"
)

const (
	EventBookingStatusChanged = "BookingStatusChanged"
	EventBookingTrackingEnded = "BookingTrackingEnded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g. "booking-tracker"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking id
	Payload       json.RawMessage `json:"payload"`
}

type BookingStatusChangedPayload struct {
	BookingID    string `json:"booking_id"`
	ServiceTitle string `json:"service_title"`
	From         Status `json:"from,omitempty"`
	To           Status `json:"to"`
}

type BookingTrackingEndedPayload struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"` // NOT_FOUND
}
