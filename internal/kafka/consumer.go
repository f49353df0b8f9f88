package kafka

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset
// may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Stats counts what the workers did with fetched messages.
type Stats struct {
	Handled  int64
	Retried  int64
	Poisoned int64
}

type Consumer struct {
	r       *kafka.Reader
	workers int

	// MaxAttempts bounds handler calls per message. A message still failing
	// after that is logged as poisoned and left uncommitted, so the group
	// sees it again after a restart or rebalance.
	MaxAttempts int
	Backoff     time.Duration

	handled, retried, poisoned atomic.Int64
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, MaxAttempts: 3, Backoff: 200 * time.Millisecond}
}

func (c *Consumer) Stats() Stats {
	return Stats{Handled: c.handled.Load(), Retried: c.retried.Load(), Poisoned: c.poisoned.Load()}
}

// deliver runs h until it succeeds, attempts run out or ctx ends. It
// reports whether the offset may be committed.
func (c *Consumer) deliver(ctx context.Context, h Handler, m kafka.Message) bool {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.retried.Add(1)
			select {
			case <-ctx.Done():
				return false
			case <-time.After(c.Backoff * time.Duration(i)):
			}
		}
		if err = h(ctx, m); err == nil {
			c.handled.Add(1)
			return true
		}
		log.Printf("kafka handler topic=%s partition=%d offset=%d attempt=%d: %v", m.Topic, m.Partition, m.Offset, i+1, err)
	}
	c.poisoned.Add(1)
	log.Printf("kafka poisoned message topic=%s partition=%d offset=%d key=%s: %v", m.Topic, m.Partition, m.Offset, m.Key, err)
	return false
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 256)

	for i := 0; i < c.workers; i++ {
		go func() {
			for m := range jobs {
				if !c.deliver(ctx, h, m) {
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					log.Printf("kafka commit offset=%d: %v", m.Offset, err)
				}
			}
		}()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			close(jobs)
			s := c.Stats()
			log.Printf("consumer stopping: handled=%d retried=%d poisoned=%d", s.Handled, s.Retried, s.Poisoned)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}
	}
}
