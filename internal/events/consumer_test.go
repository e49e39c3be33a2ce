package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bank-ledger-go/internal/ledger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeAcknowledger records how each delivery was settled
type fakeAcknowledger struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
	settled chan struct{}
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{settled: make(chan struct{}, 8)}
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.mu.Lock()
	a.acks++
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	a.mu.Unlock()
	a.settled <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack amqp.Acknowledger, event ledger.TransactionEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: body, RoutingKey: RoutingKey(event.OperationType)}
}

func TestHandleDeliveryAcksAndSkipsRedelivery(t *testing.T) {
	calls := 0
	consumer := newConsumer(newFakeChannel(), ConsumerConfig{
		Listener: ListenerFunc(func(context.Context, ledger.TransactionEvent) error {
			calls++
			return nil
		}),
	})
	ack := newFakeAcknowledger()
	event := newEvent(t, ledger.Deposit, "10")

	consumer.handleDelivery(context.Background(), delivery(t, ack, event))
	consumer.handleDelivery(context.Background(), delivery(t, ack, event))

	if calls != 1 {
		t.Errorf("Expected listener to run once, got %d", calls)
	}
	if ack.acks != 2 || ack.nacks != 0 {
		t.Errorf("Expected 2 acks and 0 nacks, got %d and %d", ack.acks, ack.nacks)
	}
}

func TestHandleDeliveryRequeuesOnFailure(t *testing.T) {
	consumer := newConsumer(newFakeChannel(), ConsumerConfig{
		Listener: ListenerFunc(func(context.Context, ledger.TransactionEvent) error {
			return errors.New("database locked")
		}),
	})
	ack := newFakeAcknowledger()
	event := newEvent(t, ledger.Withdrawal, "3")

	consumer.handleDelivery(context.Background(), delivery(t, ack, event))

	if ack.nacks != 1 || !ack.requeue[0] {
		t.Errorf("Expected a requeueing nack, got %d nacks %v", ack.nacks, ack.requeue)
	}
	if consumer.isProcessed(event.ID) {
		t.Error("Failed event should not be marked processed")
	}
}

func TestHandleDeliveryDropsMalformedBody(t *testing.T) {
	consumer := newConsumer(newFakeChannel(), ConsumerConfig{
		Listener: ListenerFunc(func(context.Context, ledger.TransactionEvent) error {
			t.Error("Listener should not run for a malformed body")
			return nil
		}),
	})
	ack := newFakeAcknowledger()

	consumer.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	if ack.nacks != 1 || ack.requeue[0] {
		t.Errorf("Expected a nack without requeue, got %d nacks %v", ack.nacks, ack.requeue)
	}
}

func TestConsumerStartRecordsDeliveries(t *testing.T) {
	ch := newFakeChannel()
	repo := &memoryTransactions{}
	consumer := newConsumer(ch, ConsumerConfig{
		Exchange: "ledger_events",
		Queue:    "ledger_transaction_recorder",
		Listener: NewRecorder(repo),
	})

	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(ch.bindings) != 1 || ch.bindings[0] != "ledger_transaction_recorder|transaction.*|ledger_events" {
		t.Errorf("Unexpected bindings: %v", ch.bindings)
	}

	ack := newFakeAcknowledger()
	ch.deliveries <- delivery(t, ack, newEvent(t, ledger.Deposit, "42"))

	select {
	case <-ack.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for delivery to settle")
	}

	consumer.Stop()
	if !ch.closed {
		t.Error("Expected channel to be closed on stop")
	}
	if len(repo.saved) != 1 {
		t.Errorf("Expected 1 recorded transaction, got %d", len(repo.saved))
	}
}

func TestConsumerStopsWhenBrokerClosesDeliveries(t *testing.T) {
	ch := newFakeChannel()
	consumer := newConsumer(ch, ConsumerConfig{Listener: NewRecorder(&memoryTransactions{})})
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	close(ch.deliveries)

	select {
	case <-consumer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Expected consumer loop to exit")
	}
	consumer.Stop()
}

func TestCleanupProcessed(t *testing.T) {
	consumer := newConsumer(newFakeChannel(), ConsumerConfig{Retention: time.Minute})
	old := newEvent(t, ledger.Deposit, "1").ID
	fresh := newEvent(t, ledger.Deposit, "1").ID

	now := time.Now()
	consumer.processed[old] = now.Add(-2 * time.Minute)
	consumer.processed[fresh] = now

	consumer.cleanupProcessed(now)

	if consumer.isProcessed(old) {
		t.Error("Expected old id to be forgotten")
	}
	if !consumer.isProcessed(fresh) {
		t.Error("Expected fresh id to be kept")
	}
}
