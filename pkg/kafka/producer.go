package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrNoTopic = errors.New("kafka topic is required")

type Config struct {
	Brokers      []string
	BatchTimeout time.Duration
}

// Event is the envelope for every message this service publishes. Consumers
// dispatch on Kind; Payload carries the event-specific body.
type Event struct {
	Kind       string      `json:"kind"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batchTimeout,
	}

	return &Producer{writer: writer}, nil
}

// Send publishes one enveloped event. The key keeps events for the same
// entity (a student's grades, an assignment's reminders) in partition order.
func (p *Producer) Send(ctx context.Context, topic, kind, key string, payload interface{}) error {
	if topic == "" {
		return ErrNoTopic
	}

	msgBytes, err := json.Marshal(Event{
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s event: %w", kind, err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
