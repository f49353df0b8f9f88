package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// Client state (token, tracked booking) has no TTL; 0 keeps it until
	// logout or not-found clears it.
	TTLClientState time.Duration = 0
	TTLDedup                     = 48 * time.Hour
)
