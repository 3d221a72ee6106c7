// Package publish emits batch results to Kafka for downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/probeops/batch"
)

// Publisher writes batch reports to a Kafka topic, keyed by batch id.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one batch result as a JSON message.
func (p *Publisher) Publish(ctx context.Context, res *batch.Result) error {
	payload, err := json.Marshal(res.Report())
	if err != nil {
		return fmt.Errorf("publish: encoding batch %q: %w", res.BatchID, err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(res.BatchID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish: writing batch %q: %w", res.BatchID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
