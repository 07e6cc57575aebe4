package kstream

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"simtax-adapter/internal/model"
)

// Topics shared with the third-party synchronizer.
const (
	TopicSyncRequests      = "simtax.assessments.sync"
	TopicAssessmentsSynced = "simtax.assessments.synced"
	TopicObjections        = "simtax.objections"
)

// MessageWriter is the part of *kafka.Writer the producers use.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter constructs a Kafka producer using segmentio/kafka-go.
// Writes are synchronous so a failed publish reaches the caller.
func KafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),     // segmentio/kafka-go: TCP address for Kafka broker
		Topic:        topic,                 // Target Kafka topic name
		Balancer:     &kafka.Hash{},         // segmentio/kafka-go: same key, same partition
		RequiredAcks: kafka.RequireOne,      // segmentio/kafka-go: Wait for leader ack only
		BatchTimeout: 10 * time.Millisecond, // flush small batches quickly
		BatchBytes:   10 << 20,              // objections carry inline attachments
	}
}

// FreshnessGate suppresses repeated sync requests for the same citizen.
type FreshnessGate interface {
	Acquire(ctx context.Context, citizenID string) (bool, error)
	Forget(ctx context.Context, citizenID string) error
}

// SyncRequester asks the synchronizer to refresh a citizen's assessments.
type SyncRequester struct {
	w     MessageWriter
	fresh FreshnessGate
	now   func() time.Time
}

// NewSyncRequester builds a requester. A nil gate publishes on every call.
func NewSyncRequester(w MessageWriter, fresh FreshnessGate) *SyncRequester {
	return &SyncRequester{w: w, fresh: fresh, now: time.Now}
}

// FetchAndSync publishes a SyncRequested event unless one went out for the
// citizen within the freshness window.
func (s *SyncRequester) FetchAndSync(ctx context.Context, citizenID string) error {
	if s.fresh != nil {
		due, err := s.fresh.Acquire(ctx, citizenID)
		if err != nil {
			return fmt.Errorf("kstream: freshness: %w", err)
		}
		if !due {
			return nil
		}
	}

	data, err := json.Marshal(model.SyncRequested{
		CitizenID: citizenID,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	// segmentio/kafka-go: keyed by citizen so requests for one citizen stay ordered.
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(citizenID),
		Value: data,
		Time:  s.now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(model.EventSyncRequested)},
		},
	})
	if err != nil {
		if s.fresh != nil {
			_ = s.fresh.Forget(ctx, citizenID)
		}
		return fmt.Errorf("kstream: publish sync request: %w", err)
	}
	return nil
}

// EventPublisher publishes domain events on the objection topic.
type EventPublisher struct {
	w   MessageWriter
	now func() time.Time
}

func NewEventPublisher(w MessageWriter) *EventPublisher {
	return &EventPublisher{w: w, now: time.Now}
}

// Publish writes payload keyed by its compositeKey. The broker never answers
// with a body, so a successful publish returns nil, nil.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload map[string]any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	key, _ := payload["compositeKey"].(string)
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  p.now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("kstream: publish %s: %w", eventType, err)
	}
	return nil, nil
}
