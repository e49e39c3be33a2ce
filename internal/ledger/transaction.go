package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a balance change
type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
)

func (t TransactionType) String() string { return string(t) }

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(s)) {
	case Deposit:
		return Deposit, nil
	case Withdrawal:
		return Withdrawal, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is an immutable record of one completed deposit or withdrawal.
type Transaction struct {
	ID          uuid.UUID
	AccountID   AccountIdentity
	AccountType AccountType
	Type        TransactionType
	Amount      decimal.Decimal
	OccurredAt  time.Time
}

func NewTransaction(id uuid.UUID, accountID AccountIdentity, accountType AccountType, txType TransactionType, amount decimal.Decimal, occurredAt time.Time) (Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}
	if txType != Deposit && txType != Withdrawal {
		return Transaction{}, fmt.Errorf("%w: unknown transaction type %q", ErrBusinessRule, txType)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return Transaction{
		ID:          id,
		AccountID:   accountID,
		AccountType: accountType,
		Type:        txType,
		Amount:      amount,
		OccurredAt:  occurredAt,
	}, nil
}

// SignedAmount is the transaction's effect on the balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Withdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionEvent is emitted after a successful balance mutation and
// consumed by the transaction recorder.
type TransactionEvent struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     AccountIdentity `json:"account_id"`
	OperationType TransactionType `json:"operation_type"`
	AccountType   AccountType     `json:"account_type"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewTransactionEvent(account Account, op TransactionType, amount decimal.Decimal, occurredAt time.Time) TransactionEvent {
	return TransactionEvent{
		ID:            uuid.New(),
		AccountID:     account.Identity(),
		OperationType: op,
		AccountType:   account.Type(),
		Amount:        amount,
		OccurredAt:    occurredAt,
	}
}

// Transaction converts the event into the log entry it records. The event id
// becomes the transaction id.
func (e TransactionEvent) Transaction() (Transaction, error) {
	return NewTransaction(e.ID, e.AccountID, e.AccountType, e.OperationType, e.Amount, e.OccurredAt)
}
