package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	got  []*Notification
	done chan struct{}
	want int
}

func (c *captureSink) Notify(_ context.Context, n *Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	if len(c.got) == c.want {
		close(c.done)
	}
	return nil
}

func TestWorkerDeliversAsync(t *testing.T) {
	sink := &captureSink{done: make(chan struct{}), want: 3}
	worker := NewWorker(sink, 16, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, worker.Notify(ctx, &Notification{Kind: KindViolation, Details: "test"}))
	}

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifications were not drained")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.got, 3)
	for _, n := range sink.got {
		assert.False(t, n.ID.IsNil(), "worker assigns missing IDs")
		assert.False(t, n.CreatedAt.IsZero())
	}
}

func TestWorkerDropsWhenFull(t *testing.T) {
	// No Run loop draining, so the buffer fills and overflow is dropped
	// rather than blocking the caller.
	sink := &captureSink{done: make(chan struct{}), want: -1}
	worker := NewWorker(sink, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, worker.Notify(ctx, &Notification{Kind: KindViolation}))
	}
	assert.Less(t, time.Since(start), time.Second, "enqueue must never block")
}
