package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bank-ledger-go/internal/ledger"

	"go.uber.org/zap"
)

// Listener reacts to a transaction event emitted after an account mutation
type Listener interface {
	Handle(ctx context.Context, event ledger.TransactionEvent) error
}

// ListenerFunc adapts a plain function to a Listener
type ListenerFunc func(ctx context.Context, event ledger.TransactionEvent) error

func (f ListenerFunc) Handle(ctx context.Context, event ledger.TransactionEvent) error {
	return f(ctx, event)
}

// Dispatcher fans an event out to its listeners synchronously, in
// registration order. Every listener runs even if an earlier one fails.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewDispatcher(listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners}
}

func (d *Dispatcher) Register(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

func (d *Dispatcher) Dispatch(ctx context.Context, event ledger.TransactionEvent) error {
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.RUnlock()

	var errs []error
	for i, listener := range listeners {
		if err := listener.Handle(ctx, event); err != nil {
			zap.L().Error("Transaction event listener failed",
				zap.Int("listener", i),
				zap.String("event_id", event.ID.String()),
				zap.String("operation_type", event.OperationType.String()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("listener %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
