package stream

import (
	"context"
	"sync"

	"roadwatch/internal/event"
)

// Recorder is an in-memory Publisher for tests and dev mode.
type Recorder struct {
	mu        sync.Mutex
	published []*event.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishTransition(_ context.Context, e *event.Event, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.published = append(r.published, &cp)
	return nil
}

// Published returns a copy of everything published so far.
func (r *Recorder) Published() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*event.Event, len(r.published))
	copy(out, r.published)
	return out
}
