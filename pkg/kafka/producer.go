// Package kafka carries analytics events between the search services and
// the analytics service over segmentio/kafka-go. Values are JSON and the
// event type travels in the TypeHeader header.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

const TypeHeader = "event_type"

// Event is one outgoing record. Key picks the partition.
type Event struct {
	Key   string
	Type  string
	Value any
}

func encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling %s event: %w", e.Type, err)
	}
	return kafka.Message{
		Key:     []byte(e.Key),
		Value:   value,
		Headers: []kafka.Header{{Key: TypeHeader, Value: []byte(e.Type)}},
	}, nil
}

func decode(msg kafka.Message) Message {
	m := Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for _, h := range msg.Headers {
		if h.Key == TypeHeader {
			m.Type = string(h.Value)
		}
	}
	return m
}

// Producer writes to a single topic. Topics are created on first write
// when the broker allows it.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			RequiredAcks:           kafka.RequireOne,
			Compression:            kafka.Zstd,
			AllowAutoTopicCreation: true,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// PublishBatch encodes every event before writing any, so a bad value
// fails the whole batch without a partial write.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages := make([]kafka.Message, len(events))
	for i, e := range events {
		msg, err := encode(e)
		if err != nil {
			return err
		}
		messages[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("writing %d messages to %s: %w", len(messages), p.writer.Topic, err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// Close flushes pending writes and logs the writer's lifetime totals.
func (p *Producer) Close() error {
	err := p.writer.Close()
	stats := p.writer.Stats()
	p.logger.Info("producer closed",
		"messages", stats.Messages,
		"errors", stats.Errors,
		"retries", stats.Retries,
	)
	return err
}
