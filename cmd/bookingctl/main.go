package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-detailing-bookings/internal/app"
	"github.com/ariefcatur/go-detailing-bookings/internal/cli"
	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newApp := func(ctx context.Context) (*app.App, func(), error) {
		store, closeStore, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		a, err := app.New(ctx, cfg, store)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		return a, closeStore, nil
	}

	if err := cli.NewRootCommand(newApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
