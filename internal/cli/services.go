package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/spf13/cobra"
)

func NewServicesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "services",
		Aliases: []string{"service", "svc"},
		Short:   "Browse and manage the service catalog",
	}
	cmd.AddCommand(newServicesListCommand(opts))
	cmd.AddCommand(newServicesAddCommand(opts))
	cmd.AddCommand(newServicesEditCommand(opts))
	cmd.AddCommand(newServicesRemoveCommand(opts))
	return cmd
}

func newServicesListCommand(opts *RootOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services, optionally filtered by title or description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Services.Refresh(cmd.Context()); err != nil {
				return err
			}
			items := a.SearchServices(query)
			rows := make([][]string, 0, len(items))
			for _, s := range items {
				rows = append(rows, []string{s.ID.String(), s.Title, s.Price.String(), s.Description})
			}
			return opts.printTable(cmd, items, []string{"ID", "TITLE", "PRICE", "DESCRIPTION"}, rows)
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "case-insensitive filter")
	return cmd
}

func readAttachment(path string) (*bookings.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &bookings.Attachment{Filename: filepath.Base(path), Data: b}, nil
}

func newServicesAddCommand(opts *RootOptions) *cobra.Command {
	var title, price, description, image string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a service (operator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := bookings.ParsePrice(price)
			if err != nil {
				return err
			}
			img, err := readAttachment(image)
			if err != nil {
				return err
			}
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := a.Services.Create(cmd.Context(), bookings.ServiceDraft{
				Title: title, Price: p, Description: description, Image: img,
			})
			if err != nil {
				return err
			}
			return opts.printMessage(cmd, svc, "Added service %s (%s).", svc.ID, title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "service title")
	cmd.Flags().StringVar(&price, "price", "", "price, e.g. 49.99")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&image, "image", "", "path to an image file")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newServicesEditCommand(opts *RootOptions) *cobra.Command {
	var title, price, description, image string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a service's fields (operator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch bookings.ServicePatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("price") {
				p, err := bookings.ParsePrice(price)
				if err != nil {
					return err
				}
				patch.Price = &p
			}
			img, err := readAttachment(image)
			if err != nil {
				return err
			}
			patch.Image = img

			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Services.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := a.Services.Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			svc, _ := a.Services.Get(args[0])
			return opts.printMessage(cmd, svc, "Updated service %s.", args[0])
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&image, "image", "", "path to a replacement image")
	return cmd
}

func newServicesRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a service (operator)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Services.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return opts.printMessage(cmd, map[string]string{"deleted": args[0]}, "Deleted service %s.", args[0])
		},
	}
}
