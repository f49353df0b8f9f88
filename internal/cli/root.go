package cli

import (
	"context"

	"github.com/ariefcatur/go-detailing-bookings/internal/app"
	"github.com/spf13/cobra"
)

// AppFactory builds the client for one command run. The returned close
// func is never nil.
type AppFactory func(ctx context.Context) (*app.App, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	JSON   bool
	NewApp AppFactory

	app     *app.App
	closeFn func()
}

func NewRootCommand(newApp AppFactory) *cobra.Command {
	opts := &RootOptions{NewApp: newApp}

	cmd := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Book detailing services and manage the shop's catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.closeFn != nil {
				opts.closeFn()
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print JSON instead of text")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewServicesCommand(opts))
	cmd.AddCommand(NewBookingsCommand(opts))
	cmd.AddCommand(NewBookCommand(opts))
	cmd.AddCommand(NewTrackCommand(opts))
	cmd.AddCommand(NewReviewsCommand(opts))
	return cmd
}

// App lazily builds the client so --help never touches storage.
func (o *RootOptions) App(ctx context.Context) (*app.App, error) {
	if o.app != nil {
		return o.app, nil
	}
	a, closeFn, err := o.NewApp(ctx)
	if err != nil {
		return nil, err
	}
	o.app, o.closeFn = a, closeFn
	return a, nil
}
