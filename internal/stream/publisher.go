// Package stream publishes geofence transitions to a kafka topic so
// downstream consumers (reporting, ML scoring) can follow along without
// polling the database. Publishing is best-effort: the event log, not
// kafka, is the source of truth for membership state.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"roadwatch/internal/event"
)

// Publisher is what the transition engine fans transitions out to.
type Publisher interface {
	PublishTransition(ctx context.Context, e *event.Event, category string) error
}

// transitionPayload is the JSON structure written to the topic.
type transitionPayload struct {
	EventID    string  `json:"event_id"`
	SubjectID  string  `json:"subject_id"`
	GuardianID string  `json:"guardian_id"`
	RegionID   string  `json:"region_id"`
	TripID     string  `json:"trip_id,omitempty"`
	Action     string  `json:"action"`
	Category   string  `json:"category"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	OccurredAt string  `json:"occurred_at"`
}

// KafkaPublisher writes transitions with the subject ID as the record key
// so per-subject ordering survives partitioning.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Idempotent; TOPIC_ALREADY_EXISTS is fine.
	if _, err := admin.CreateTopic(ensureCtx, 1, 1, nil, topic); err != nil {
		logger.WarnContext(ctx, "could not create kafka topic (may already exist)",
			"topic", topic,
			"error", err,
		)
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *KafkaPublisher) PublishTransition(ctx context.Context, e *event.Event, category string) error {
	payload := transitionPayload{
		EventID:    e.ID.String(),
		SubjectID:  e.SubjectID.String(),
		GuardianID: e.GuardianID.String(),
		RegionID:   e.RegionID.String(),
		Action:     string(e.Action),
		Category:   category,
		Lat:        e.Lat,
		Lon:        e.Lon,
		OccurredAt: e.CreatedAt.Format(time.RFC3339Nano),
	}
	if !e.TripID.IsNil() {
		payload.TripID = e.TripID.String()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.SubjectID.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka publish failed",
				"topic", p.topic,
				"event_id", e.ID.String(),
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("kafka flush: %w", err)
	}
	p.client.Close()
	return nil
}
