package kstream

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"simtax-adapter/internal/logger"
)

// MessageReader is the part of *kafka.Reader the consumer loop uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg kafka.Message) error

// KafkaReader creates a Kafka consumer using segmentio/kafka-go library.
// kafka.Reader provides consumer group functionality with automatic offset management.
func KafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker}, // segmentio/kafka-go: Kafka broker addresses
		Topic:          topic,            // segmentio/kafka-go: Topic to consume from
		GroupID:        groupID,          // segmentio/kafka-go: Consumer group ID (enables load balancing)
		MinBytes:       10e3,             // segmentio/kafka-go: Min bytes to fetch per request (10KB)
		MaxBytes:       10 << 20,         // segmentio/kafka-go: Max bytes per message
		CommitInterval: time.Second,      // segmentio/kafka-go: Auto-commit interval for offsets
	})
}

// Consume reads messages until ctx is cancelled. A failing handler is logged
// and the message skipped; a synced batch that cannot be applied is
// superseded by the next sync of the same citizen.
func Consume(ctx context.Context, reader MessageReader, handle Handler, log *logger.Logger) error {
	log = logger.OrDiscard(log)
	for {
		// segmentio/kafka-go: ReadMessage blocks until a message is available
		// and commits offsets for the consumer group.
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handle(ctx, msg); err != nil {
			log.Warn("consume: handler failed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}
