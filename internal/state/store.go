// Package state is the client-side storage that survives restarts: the
// operator token and the id of the last booking this client submitted.
package state

import (
	"context"
	"fmt"
)

type Store interface {
	// Get reports ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const (
	// admin token: client:{profile}:admin_token -> bearer token
	KeyAdminToken = "client:%s:admin_token"
	// tracked booking: client:{profile}:last_booking_id -> booking id
	KeyLastBookingID = "client:%s:last_booking_id"
)

func AdminTokenKey(profile string) string { return fmt.Sprintf(KeyAdminToken, profile) }

func LastBookingKey(profile string) string { return fmt.Sprintf(KeyLastBookingID, profile) }
