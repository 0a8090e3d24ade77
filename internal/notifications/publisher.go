package notifications

import (
	"context"
	"fmt"
	"time"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/config"
	applogger "concertticket/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Publisher delivers committed program events to a broker.
type Publisher interface {
	Publish(ctx context.Context, messages []*EventMessage) error
	Name() string
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Broker {
	case "kafka":
		return NewKafkaPublisher(DefaultKafkaProducerConfig(cfg.KafkaBrokers, cfg.KafkaTopic))
	case "rabbitmq":
		return NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitQueue)
	case "", "none":
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}

// CommitHook publishes the events of every committed transaction. A
// broker failure is logged; the transaction is already final.
func CommitHook(p Publisher) ledger.CommitHook {
	logger := applogger.GetDefault().WithComponent("notifications")
	return func(ctx context.Context, record *ledger.TransactionRecord) {
		messages := MessagesFromRecord(record)
		if len(messages) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, messages); err != nil {
			logger.WithError(err).Error("Failed to publish program events",
				"signature", record.Signature.String(), "events", len(messages), "broker", p.Name())
			return
		}
		for _, m := range messages {
			logger.LogEventPublished(ctx, m.Name, m.Key, p.Name())
		}
	}
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, []*EventMessage) error { return nil }

func (NoopPublisher) Name() string { return "none" }

func (NoopPublisher) Close() error { return nil }
