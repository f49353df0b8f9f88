package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	kafkax "github.com/ariefcatur/go-detailing-bookings/internal/kafka"
	"github.com/ariefcatur/go-detailing-bookings/internal/notify"
	"github.com/ariefcatur/go-detailing-bookings/internal/redisx"
	"github.com/joho/godotenv"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Dedup:    &redisx.Dedup{RDB: rdb, Service: cfg.ServiceName + "-notifier"},
		Notifier: notify.LogNotifier{},
	}

	// Consumer
	group := getenv("NOTIFIER_GROUP", "booking-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, bookings.TopicBookingStatus, workers)

	go func() {
		log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, bookings.TopicBookingStatus, workers)
		if err := cons.Start(ctx, svc.HandleStatusEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
