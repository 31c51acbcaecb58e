// Package events publishes notifications about completed rate refreshes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RatesFetched is emitted after a refresh stored at least one rate.
type RatesFetched struct {
	Date      string    `json:"date"`
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Publisher delivers refresh events to downstream consumers.
type Publisher interface {
	PublishRatesFetched(ctx context.Context, event RatesFetched) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// PublishRatesFetched implements Publisher.
func (NopPublisher) PublishRatesFetched(context.Context, RatesFetched) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// KafkaPublisher writes events to a Kafka topic keyed by quotation date,
// so all events for one date land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// PublishRatesFetched implements Publisher.
func (k *KafkaPublisher) PublishRatesFetched(ctx context.Context, event RatesFetched) error {
	msg, err := kafkaMessage(event)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func kafkaMessage(event RatesFetched) (kafka.Message, error) {
	v, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Date),
		Value: v,
		Time:  event.FetchedAt,
	}, nil
}

// Close flushes pending messages and closes the writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*KafkaPublisher)(nil)
)
