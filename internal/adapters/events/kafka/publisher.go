package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	portsevents "github.com/openbooks/ledger_backend/internal/core/ports/events"
)

const transactionRecordedTopic = "ledger.transactions.recorded"

// Publisher emits ledger events to Kafka. Messages are keyed by entity so
// one entity's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    transactionRecordedTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

var _ portsevents.Publisher = (*Publisher)(nil)

func (p *Publisher) PublishTransactionRecorded(ctx context.Context, event portsevents.TransactionRecorded) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal TransactionRecorded event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
