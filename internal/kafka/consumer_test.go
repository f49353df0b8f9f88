package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestDeliverRetriesUntilHandled(t *testing.T) {
	c := &Consumer{MaxAttempts: 3, Backoff: time.Millisecond}
	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls < 2 {
			return errors.New("notifier unavailable")
		}
		return nil
	}

	assert.True(t, c.deliver(context.Background(), h, kafka.Message{Offset: 4}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, Stats{Handled: 1, Retried: 1}, c.Stats())
}

func TestDeliverGivesUpOnPoisonedMessage(t *testing.T) {
	c := &Consumer{MaxAttempts: 2, Backoff: time.Millisecond}
	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		return errors.New("always fails")
	}

	assert.False(t, c.deliver(context.Background(), h, kafka.Message{Offset: 9}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, Stats{Retried: 1, Poisoned: 1}, c.Stats())
}

func TestDeliverStopsOnCancel(t *testing.T) {
	c := &Consumer{MaxAttempts: 5, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		cancel()
		return errors.New("shutting down")
	}

	assert.False(t, c.deliver(ctx, h, kafka.Message{}))
	assert.Equal(t, 1, calls)
	assert.Zero(t, c.Stats().Poisoned)
}
