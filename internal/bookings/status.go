package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusFinished   Status = "Finished"
)

// InitialStatus is what the store assigns to a freshly submitted booking.
const InitialStatus = StatusPending

var statuses = []Status{StatusPending, StatusInProgress, StatusFinished}

// Statuses returns the fixed set an operator may pick from, in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further work happens on the booking.
// It does not restrict transitions.
func (s Status) Terminal() bool { return s == StatusFinished }

// ParseStatus accepts the three statuses case-insensitively, with or
// without the space in "In Progress". Blank input is rejected.
func ParseStatus(raw string) (Status, error) {
	t := strings.TrimSpace(raw)
	switch strings.ToLower(strings.ReplaceAll(t, " ", "")) {
	case "pending":
		return StatusPending, nil
	case "inprogress":
		return StatusInProgress, nil
	case "finished":
		return StatusFinished, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = StatusPending
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*s = StatusPending
		return nil
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CanTransition is intentionally loose: an authorized session may set any
// of the three statuses at any time, including moving backwards.
func CanTransition(from, to Status) bool {
	return from.Valid() && to.Valid()
}

// StatusUpdater is the part of the booking collection the lifecycle needs.
type StatusUpdater interface {
	Update(ctx context.Context, id string, patch StatusPatch) error
}

// ChangeStatus is the only transition trigger: an operator picking a new
// status for one booking id.
func ChangeStatus(ctx context.Context, u StatusUpdater, id string, from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidStatus, from, to)
	}
	return u.Update(ctx, id, StatusPatch{Status: to})
}
