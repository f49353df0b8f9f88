package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/tracker"
	"github.com/spf13/cobra"
)

func NewBookingsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "Review and update bookings (operator)",
	}
	cmd.AddCommand(newBookingsListCommand(opts))
	cmd.AddCommand(newBookingsStatusCommand(opts))
	cmd.AddCommand(newBookingsRemoveCommand(opts))
	return cmd
}

func newBookingsListCommand(opts *RootOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings, optionally filtered by customer name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Bookings.Refresh(cmd.Context()); err != nil {
				return err
			}
			items := a.SearchBookings(query)
			rows := make([][]string, 0, len(items))
			for _, b := range items {
				rows = append(rows, []string{
					b.ID.String(), b.CustomerName, b.Email, b.BookingDate + " " + b.BookingTime,
					b.LocationType.Label(), b.ServiceTitle, string(b.Status),
				})
			}
			return opts.printTable(cmd, items, []string{"ID", "CUSTOMER", "EMAIL", "WHEN", "WHERE", "SERVICE", "STATUS"}, rows)
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by customer name")
	return cmd
}

func newBookingsStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: `Set a booking's status: "Pending", "In Progress" or "Finished"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := bookings.ParseStatus(args[1])
			if err != nil {
				return err
			}
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if a.Gate.IsAuthorized() {
				if _, err := a.Bookings.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			if err := a.SetBookingStatus(cmd.Context(), args[0], to); err != nil {
				return err
			}
			return opts.printMessage(cmd, bookings.StatusPatch{Status: to}, "Booking %s is now %s.", args[0], to)
		},
	}
}

func newBookingsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a booking",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Bookings.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return opts.printMessage(cmd, map[string]string{"deleted": args[0]}, "Deleted booking %s.", args[0])
		},
	}
}

func NewBookCommand(opts *RootOptions) *cobra.Command {
	var (
		serviceID string
		location  string
		d         bookings.BookingDraft
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Request a booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			var svc *bookings.Service
			if serviceID != "" {
				if _, err := a.Services.Refresh(cmd.Context()); err != nil {
					return err
				}
				s, ok := a.Services.Get(serviceID)
				if !ok {
					return fmt.Errorf("no service with id %s", serviceID)
				}
				svc = &s
			}
			draft := bookings.NewBookingDraft(svc)
			draft.CustomerName, draft.Email = d.CustomerName, d.Email
			draft.BookingDate, draft.BookingTime = d.BookingDate, d.BookingTime
			draft.Message = d.Message
			if location != "" {
				draft.LocationType = bookings.LocationType(location)
			}

			b, err := a.SubmitBooking(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return opts.printMessage(cmd, b, "Booking %s submitted for %s (%s).", b.ID, b.ServiceTitle, b.Status)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.CustomerName, "name", "", "your full name")
	f.StringVar(&d.Email, "email", "", "your email")
	f.StringVar(&d.BookingDate, "date", "", "date, YYYY-MM-DD")
	f.StringVar(&d.BookingTime, "time", "", "time, HH:MM")
	f.StringVar(&location, "location", "shop", "shop or mobile")
	f.StringVar(&serviceID, "service", "", "service id (omit for a general inquiry)")
	f.StringVar(&d.Message, "message", "", "special requests")
	return cmd
}

type printSink struct {
	cmd  *cobra.Command
	opts *RootOptions
}

func (p printSink) StatusChanged(_ context.Context, ch tracker.StatusChange) error {
	v := bookings.StatusView{BookingID: bookings.ID(ch.BookingID), ServiceTitle: ch.ServiceTitle, Status: ch.To}
	return p.opts.printMessage(p.cmd, v, "%s  %s: %s", ch.ObservedAt.Local().Format(time.Kitchen), ch.ServiceTitle, ch.To)
}

func (p printSink) TrackingEnded(_ context.Context, id string) error {
	return p.opts.printMessage(p.cmd, map[string]string{"ended": id}, "Booking %s is no longer on file.", id)
}

func NewTrackCommand(opts *RootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Show the status of the last booking made from this client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if watch {
				a.Tracker.Sink = printSink{cmd: cmd, opts: opts}
				return a.Tracker.Run(cmd.Context())
			}
			v, ok, err := a.Tracker.Check(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return opts.printMessage(cmd, map[string]any{"tracking": false}, "No booking to track.")
			}
			return opts.printMessage(cmd, v, "%s: %s", v.ServiceTitle, v.Status)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until interrupted")
	return cmd
}
