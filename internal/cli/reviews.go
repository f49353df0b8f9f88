package cli

import (
	"strconv"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/spf13/cobra"
)

func NewReviewsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review"},
		Short:   "Read and write customer reviews",
	}
	cmd.AddCommand(newReviewsListCommand(opts))
	cmd.AddCommand(newReviewsAddCommand(opts))
	cmd.AddCommand(newReviewsRemoveCommand(opts))
	return cmd
}

func newReviewsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reviews with the service they are about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			// Titles come from the catalog; a stale catalog only degrades them.
			_, _ = a.Services.Refresh(cmd.Context())
			items, err := a.Reviews.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, r := range items {
				rows = append(rows, []string{r.ID.String(), a.ReviewTitle(r), strconv.Itoa(r.Rating), r.Comment})
			}
			return opts.printTable(cmd, items, []string{"ID", "SERVICE", "RATING", "COMMENT"}, rows)
		},
	}
}

func newReviewsAddCommand(opts *RootOptions) *cobra.Command {
	var d bookings.ReviewDraft
	var serviceID string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Review a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d.ServiceID = bookings.ID(serviceID)
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.SubmitReview(cmd.Context(), d)
			if err != nil {
				return err
			}
			return opts.printMessage(cmd, r, "Thanks! Review %s saved.", r.ID)
		},
	}
	cmd.Flags().StringVar(&serviceID, "service", "", "id of the reviewed service")
	cmd.Flags().IntVar(&d.Rating, "rating", 0, "1 to 5")
	cmd.Flags().StringVar(&d.Comment, "comment", "", "what you thought")
	return cmd
}

func newReviewsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a review (operator)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Reviews.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return opts.printMessage(cmd, map[string]string{"deleted": args[0]}, "Deleted review %s.", args[0])
		},
	}
}
