package bookings

const TopicBookingStatus = "booking.status.changed"

// Partition key = booking id, so every event for one booking stays ordered.
func PartitionKey(bookingID string) []byte { return []byte(bookingID) }
