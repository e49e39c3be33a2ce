package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bank-ledger-go/internal/ledger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeKind = "topic"
	dialTimeout  = 10 * time.Second
)

// publishChannel is the subset of *amqp.Channel the publisher uses
type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is a Listener that forwards events to a RabbitMQ topic exchange
type Publisher struct {
	channel  publishChannel
	exchange string
}

// Dial connects to RabbitMQ with a bounded dial timeout
func Dial(rawURL string) (*amqp.Connection, error) {
	cleanURL, err := sanitizeAMQPURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// NewPublisher opens a channel on conn and declares the durable exchange
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p, err := newPublisher(ch, exchange)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch publishChannel, exchange string) (*Publisher, error) {
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Handle(ctx context.Context, event ledger.TransactionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	key := RoutingKey(event.OperationType)
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	zap.L().Debug("Transaction event published",
		zap.String("event_id", event.ID.String()),
		zap.String("exchange", p.exchange),
		zap.String("routing_key", key))
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

// RoutingKey is transaction.deposit or transaction.withdrawal
func RoutingKey(op ledger.TransactionType) string {
	return "transaction." + strings.ToLower(op.String())
}

func declareExchange(ch interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange,     // name
		exchangeKind, // type
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
