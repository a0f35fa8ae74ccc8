package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swiftcart/checkout-api/internal/fulfillment"
	"github.com/swiftcart/checkout-api/internal/usecase"
)

// DeliveryPublisher implements usecase.DeliveryEventPublisher on a topic
// exchange. Routing key is delivery.status.<stage>, so subscribers can bind
// to just the transitions they care about (e.g. delivery.status.delivered).
type DeliveryPublisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewDeliveryPublisher declares the exchange once at startup.
func NewDeliveryPublisher(ch *amqp.Channel, exchange string) (*DeliveryPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &DeliveryPublisher{ch: ch, exchange: exchange}, nil
}

func (p *DeliveryPublisher) PublishDeliveryStatus(ctx context.Context, ev fulfillment.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType: "application/json",
		// Position ticks are ephemeral; no need to survive a broker restart.
		DeliveryMode: amqp.Transient,
		Body:         body,
	}

	rk := "delivery.status." + ev.Stage
	if err := p.ch.PublishWithContext(ctx, p.exchange, rk, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.DeliveryEventPublisher = (*DeliveryPublisher)(nil)
