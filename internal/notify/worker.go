package notify

import (
	"context"
	"log/slog"
	"time"

	id "roadwatch/pkg/domain"
)

// Worker decouples notification delivery from the request path: callers
// enqueue without blocking and the worker drains to the real notifier.
// A full inbox drops the notification — delivery is best-effort by
// contract and evaluation must never wait on it.
type Worker struct {
	sink   Notifier
	inbox  chan *Notification
	logger *slog.Logger
}

func NewWorker(sink Notifier, buffer int, logger *slog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{
		sink:   sink,
		inbox:  make(chan *Notification, buffer),
		logger: logger,
	}
}

// Notify enqueues for async delivery. Implements Notifier so the worker
// can stand in front of any sink.
func (w *Worker) Notify(ctx context.Context, n *Notification) error {
	if n.ID.IsNil() {
		n.ID = id.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	select {
	case w.inbox <- n:
		return nil
	default:
		w.logger.WarnContext(ctx, "notification inbox full, dropping",
			"kind", string(n.Kind),
			"notification_id", n.ID.String(),
		)
		return nil
	}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-w.inbox:
			if err := w.sink.Notify(ctx, n); err != nil {
				w.logger.ErrorContext(ctx, "notification delivery failed",
					"error", err,
					"notification_id", n.ID.String(),
				)
			}
		}
	}
}
