package events

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Recorder appends every event to the transaction log. The event id becomes
// the transaction id, so redelivering an event is a no-op.
type Recorder struct {
	transactions store.TransactionRepository
}

func NewRecorder(transactions store.TransactionRepository) *Recorder {
	return &Recorder{transactions: transactions}
}

func (r *Recorder) Handle(ctx context.Context, event ledger.TransactionEvent) error {
	tx, err := event.Transaction()
	if err != nil {
		return fmt.Errorf("invalid transaction event %s: %w", event.ID, err)
	}

	if err := r.transactions.Save(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Debug("Transaction already recorded", zap.String("transaction_id", tx.ID.String()))
			return nil
		}
		return fmt.Errorf("failed to record transaction %s: %w", tx.ID, err)
	}

	zap.L().Info("Transaction recorded",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("account_id", tx.AccountID.String()),
		zap.String("type", tx.Type.String()),
		zap.String("amount", tx.Amount.String()))
	return nil
}
