package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/app"
	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	"github.com/ariefcatur/go-detailing-bookings/internal/httpx"
	kafkax "github.com/ariefcatur/go-detailing-bookings/internal/kafka"
	"github.com/ariefcatur/go-detailing-bookings/internal/notify"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Client state
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	defer closeStore()

	a, err := app.New(ctx, cfg, store)
	if err != nil {
		log.Fatalf("app: %v", err)
	}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, bookings.TopicBookingStatus, 1024)
	prod.Start(ctx)
	a.Tracker.Sink = &notify.StatusPublisher{Producer: prod, ServiceName: cfg.ServiceName}

	router := httpx.NewRouter()
	sh := &httpx.StatusHandler{Source: a.Tracker}
	sh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		id, ok, _ := a.Tracker.Remembered(ctx)
		if !ok {
			log.Printf("no booking remembered for profile %q; serving without tracking", cfg.Profile)
			return
		}
		log.Printf("tracking booking %s every %s", id, cfg.PollInterval)
		if err := a.Tracker.Run(ctx); err != nil {
			log.Printf("tracker exit: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()
	<-trackerDone
	prod.Close()
	prod.WaitClosed()
}
