package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bank-ledger-go/internal/ledger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	bindingKey             = "transaction.*"
	defaultRetention       = time.Hour
	defaultCleanupInterval = 5 * time.Minute
)

// consumeChannel is the subset of *amqp.Channel the consumer uses
type consumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// ConsumerConfig contains configuration for Consumer
type ConsumerConfig struct {
	Exchange        string
	Queue           string
	Listener        Listener
	Retention       time.Duration
	CleanupInterval time.Duration
}

// Consumer reads transaction events from a durable queue and hands each to
// its listener. Deliveries are acked on success and requeued on failure.
type Consumer struct {
	channel  consumeChannel
	exchange string
	queue    string
	listener Listener

	// Recently handled event ids, so a redelivery skips the listener
	processed       map[uuid.UUID]time.Time
	mutex           sync.RWMutex
	retention       time.Duration
	cleanupInterval time.Duration

	// Control channels
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewConsumer opens a channel on conn for consuming events
func NewConsumer(conn *amqp.Connection, cfg ConsumerConfig) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return newConsumer(ch, cfg), nil
}

func newConsumer(ch consumeChannel, cfg ConsumerConfig) *Consumer {
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &Consumer{
		channel:         ch,
		exchange:        cfg.Exchange,
		queue:           cfg.Queue,
		listener:        cfg.Listener,
		processed:       make(map[uuid.UUID]time.Time),
		retention:       retention,
		cleanupInterval: cleanupInterval,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start declares the topology and begins consuming in the background
func (c *Consumer) Start(ctx context.Context) error {
	zap.L().Info("Starting transaction event consumer",
		zap.String("exchange", c.exchange),
		zap.String("queue", c.queue))

	if err := declareExchange(c.channel, c.exchange); err != nil {
		return err
	}

	q, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(q.Name, bindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	deliveries, err := c.channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", q.Name, err)
	}

	c.started = true
	go c.consumeLoop(ctx, deliveries)
	go c.cleanupLoop(ctx)

	zap.L().Info("Transaction event consumer started", zap.String("queue", q.Name))
	return nil
}

// Stop ends consumption and waits for the in-flight delivery to finish
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		zap.L().Info("Stopping transaction event consumer")
		close(c.stopChan)
		if c.started {
			<-c.doneChan
		}
		if err := c.channel.Close(); err != nil {
			zap.L().Warn("Failed to close consumer channel", zap.Error(err))
		}
		zap.L().Info("Transaction event consumer stopped")
	})
}

// Done is closed when the delivery loop exits
func (c *Consumer) Done() <-chan struct{} {
	return c.doneChan
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.doneChan)

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				zap.L().Warn("Delivery channel closed by broker")
				return
			}
			c.handleDelivery(ctx, d)
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var event ledger.TransactionEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// A malformed body never decodes, so requeueing it would loop forever.
		zap.L().Error("Dropping malformed transaction event",
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err))
		c.settle(d.Nack(false, false))
		return
	}

	if c.isProcessed(event.ID) {
		zap.L().Debug("Event already handled, acknowledging", zap.String("event_id", event.ID.String()))
		c.settle(d.Ack(false))
		return
	}

	if err := c.listener.Handle(ctx, event); err != nil {
		zap.L().Error("Failed to handle transaction event, requeueing",
			zap.String("event_id", event.ID.String()),
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err))
		c.settle(d.Nack(false, true))
		return
	}

	c.markProcessed(event.ID)
	c.settle(d.Ack(false))
}

func (c *Consumer) settle(err error) {
	if err != nil {
		zap.L().Error("Failed to settle delivery", zap.Error(err))
	}
}

func (c *Consumer) isProcessed(id uuid.UUID) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.processed[id]
	return exists
}

func (c *Consumer) markProcessed(id uuid.UUID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.processed[id] = time.Now()
}

// cleanupLoop periodically forgets old event ids
func (c *Consumer) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupProcessed(time.Now())
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) cleanupProcessed(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cutoff := now.Add(-c.retention)
	cleaned := 0

	for id, processedAt := range c.processed {
		if processedAt.Before(cutoff) {
			delete(c.processed, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up processed event ids",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(c.processed)))
	}
}
