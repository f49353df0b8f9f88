package bookings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// GeneralInquiry is snapshotted when a booking is not tied to a service.
	GeneralInquiry = "General Inquiry"
	// GeneralReview is shown for reviews whose service is gone or unset.
	GeneralReview = "General Review"
)

// ID is an opaque store-assigned identifier. The store may send it as a
// JSON number or a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Price is a decimal amount in cents.
type Price int64

func (p Price) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (p Price) MarshalJSON() ([]byte, error) { return []byte(p.String()), nil }

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*p = 0
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePrice accepts "25", "25.5" and "25.50". More than two significant
// decimal places is an error rather than a silent rounding.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty price", ErrInvalid)
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", ErrInvalid, s)
	}
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("%w: price %q has sub-cent precision", ErrInvalid, s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", ErrInvalid, s)
	}
	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return Price(cents), nil
}

type LocationType string

const (
	LocationShop   LocationType = "shop"
	LocationMobile LocationType = "mobile"
)

func (l LocationType) Label() string {
	if l == LocationMobile {
		return "Mobile"
	}
	return "In-Shop"
}

type Service struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Price       Price  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

func (s Service) Key() string { return string(s.ID) }

// Attachment is a binary payload sent along with a service mutation.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ServiceDraft struct {
	Title       string      `validate:"required"`
	Price       Price       `validate:"gte=0"`
	Description string      `validate:"max=2000"`
	Image       *Attachment `validate:"-"`
}

// ServicePatch changes only the fields that are set.
type ServicePatch struct {
	Title       *string     `validate:"omitempty,min=1"`
	Price       *Price      `validate:"omitempty,gte=0"`
	Description *string     `validate:"omitempty,max=2000"`
	Image       *Attachment `validate:"-"`
}

func (p ServicePatch) Apply(s Service) Service {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	return s
}

// NeedsRefresh is true when the store derives fields (the image URI) the
// client cannot merge locally.
func (p ServicePatch) NeedsRefresh() bool { return p.Image != nil }

func (p ServicePatch) Validate() error { return validateStruct(p) }

func (d ServiceDraft) Validate() error { return validateStruct(d) }

type Booking struct {
	ID           ID           `json:"id"`
	CustomerName string       `json:"customer_name"`
	Email        string       `json:"email"`
	BookingDate  string       `json:"booking_date"`
	BookingTime  string       `json:"booking_time"`
	LocationType LocationType `json:"location_type"`
	ServiceTitle string       `json:"service_title"`
	Message      string       `json:"message,omitempty"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (b Booking) Key() string { return string(b.ID) }

// UnmarshalJSON treats a record without a status as Pending, same as an
// explicit null.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Status == "" {
		v.Status = StatusPending
	}
	*b = Booking(v)
	return nil
}

type BookingDraft struct {
	CustomerName string       `json:"customer_name" validate:"required"`
	Email        string       `json:"email" validate:"required,email"`
	BookingDate  string       `json:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime  string       `json:"booking_time" validate:"required,datetime=15:04"`
	LocationType LocationType `json:"location_type" validate:"required,oneof=shop mobile"`
	ServiceTitle string       `json:"service_title" validate:"required"`
	Message      string       `json:"message"`
}

// NewBookingDraft snapshots the chosen service's title. The snapshot is
// never re-synced with the service afterwards.
func NewBookingDraft(svc *Service) BookingDraft {
	d := BookingDraft{LocationType: LocationShop, ServiceTitle: GeneralInquiry}
	if svc != nil && svc.Title != "" {
		d.ServiceTitle = svc.Title
	}
	return d
}

func (d BookingDraft) Validate() error { return validateStruct(d) }

// StatusPatch is the only mutation an operator applies to a booking.
type StatusPatch struct {
	Status Status `json:"status" validate:"booking_status"`
}

func (p StatusPatch) Apply(b Booking) Booking {
	b.Status = p.Status
	return b
}

func (p StatusPatch) Validate() error { return validateStruct(p) }

type Review struct {
	ID        ID        `json:"id"`
	ServiceID ID        `json:"service_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Review) Key() string { return string(r.ID) }

type ReviewDraft struct {
	ServiceID ID     `json:"service_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required"`
}

func (d ReviewDraft) Validate() error { return validateStruct(d) }

// ReviewPatch exists to satisfy the collection shape; reviews are never
// edited, only created and deleted.
type ReviewPatch struct{}

func (ReviewPatch) Apply(r Review) Review { return r }

// ReviewServiceTitle resolves the reviewed service, tolerating references
// to services deleted since the review was written.
func ReviewServiceTitle(r Review, services []Service) string {
	if r.ServiceID == "" {
		return GeneralReview
	}
	for _, s := range services {
		if s.ID == r.ServiceID {
			return s.Title
		}
	}
	return GeneralReview
}

// StatusView is what the customer who booked gets to see.
type StatusView struct {
	BookingID    ID     `json:"booking_id"`
	ServiceTitle string `json:"service_title"`
	Status       Status `json:"status"`
}

func (b Booking) View() StatusView {
	return StatusView{BookingID: b.ID, ServiceTitle: b.ServiceTitle, Status: b.Status}
}
