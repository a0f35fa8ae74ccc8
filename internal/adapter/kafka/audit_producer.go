package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/swiftcart/checkout-api/internal/usecase"
)

// AuditProducer publishes checkout audit events (flagged, overridden,
// completed) for the owner dashboard's analytics pipeline. Keyed by
// checkout id so one session's events stay ordered within a partition.
type AuditProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewAuditProducer(producer sarama.SyncProducer, topic string) *AuditProducer {
	return &AuditProducer{producer: producer, topic: topic}
}

func (p *AuditProducer) PublishAudit(_ context.Context, msg usecase.CheckoutAuditMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit msg: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.CheckoutID),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("send audit msg: %w", err)
	}
	return nil
}

var _ usecase.AuditPublisher = (*AuditProducer)(nil)
