// Package mirror publishes forwarded envelopes to a Kafka topic so other
// consumers can tail the same message stream the knowledge graph receives.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oculair/graphpoll/internal/graphiti"
)

// Publisher mirrors envelope batches to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers (comma-separated)
// and topic.
func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// buildMessages maps envelopes to Kafka messages, keyed by agent ID so a
// single agent's messages stay in partition order. The run ID rides along
// as a header for correlation with the history store.
func buildMessages(runID, agentID string, envelopes []graphiti.Envelope) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(envelopes))
	for _, env := range envelopes {
		value, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(agentID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(runID)},
			},
			Time: time.Now(),
		})
	}
	return msgs, nil
}

// Publish writes one Kafka message per envelope.
func (p *Publisher) Publish(ctx context.Context, runID, agentID string, envelopes []graphiti.Envelope) error {
	msgs, err := buildMessages(runID, agentID, envelopes)
	if err != nil {
		return fmt.Errorf("mirror publish: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("mirror publish: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }
