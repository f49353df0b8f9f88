package bookings

func ServiceSearchFields(s Service) []string { return []string{s.Title, s.Description} }

func BookingSearchFields(b Booking) []string { return []string{b.CustomerName} }
