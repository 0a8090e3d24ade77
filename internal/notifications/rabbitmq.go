package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes program events to a durable queue on the
// default exchange.
type RabbitMQPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
}

// NewRabbitMQPublisher dials url and declares queue.
func NewRabbitMQPublisher(url, queue string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open failed: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare failed: %w", err)
	}
	p := newRabbitMQPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func newRabbitMQPublisher(ch amqpChannel, queue string) *RabbitMQPublisher {
	return &RabbitMQPublisher{ch: ch, queue: queue}
}

func (rp *RabbitMQPublisher) Name() string { return "rabbitmq" }

func (rp *RabbitMQPublisher) Publish(ctx context.Context, messages []*EventMessage) error {
	// amqp channels are not safe for concurrent publishing.
	rp.mu.Lock()
	defer rp.mu.Unlock()

	for _, m := range messages {
		body, err := m.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", m.Name, err)
		}
		pub := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    m.ID.String(),
			Type:         m.Name,
			Timestamp:    m.BlockTime,
			Headers:      amqp.Table{"key": m.Key, "signature": m.Signature.String()},
			Body:         body,
		}
		if err := rp.ch.PublishWithContext(ctx, "", rp.queue, false, false, pub); err != nil {
			return fmt.Errorf("rabbitmq publish failed: %w", err)
		}
	}
	return nil
}

func (rp *RabbitMQPublisher) Close() error {
	var errs []error
	if rp.ch != nil {
		errs = append(errs, rp.ch.Close())
	}
	if rp.conn != nil {
		errs = append(errs, rp.conn.Close())
	}
	return errors.Join(errs...)
}
