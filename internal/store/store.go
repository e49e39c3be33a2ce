package store

import (
	"context"
	"errors"
	"time"

	"bank-ledger-go/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations. A missing
// record is reported with ledger.ErrNotFound.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// CurrentAccountRepository persists current accounts.
//
// Save inserts an account whose Version is 0 and otherwise performs a
// compare-and-swap on Version, returning ErrConcurrentModification when the
// stored row has moved on. On success the account's Version is advanced.
type CurrentAccountRepository interface {
	GetByIdentity(ctx context.Context, id ledger.AccountIdentity) (*ledger.CurrentAccount, error)
	GetByAccountNumber(ctx context.Context, number uuid.UUID) (*ledger.CurrentAccount, error)
	Save(ctx context.Context, account *ledger.CurrentAccount) error
	Delete(ctx context.Context, id ledger.AccountIdentity) error
	UpdateOverdraftLimit(ctx context.Context, number uuid.UUID, limit decimal.Decimal) error
	List(ctx context.Context, activeOnly bool) ([]*ledger.CurrentAccount, error)
}

// BookletAccountRepository persists booklet accounts with the same Save
// semantics as CurrentAccountRepository.
type BookletAccountRepository interface {
	GetByIdentity(ctx context.Context, id ledger.AccountIdentity) (*ledger.BookletAccount, error)
	GetByAccountNumber(ctx context.Context, number uuid.UUID) (*ledger.BookletAccount, error)
	Save(ctx context.Context, account *ledger.BookletAccount) error
	Delete(ctx context.Context, id ledger.AccountIdentity) error
	List(ctx context.Context, activeOnly bool) ([]*ledger.BookletAccount, error)
}

// TransactionRepository is the append-only transaction log. Reads return
// transactions oldest first; the date range is inclusive on both ends.
type TransactionRepository interface {
	GetByAccountID(ctx context.Context, accountID ledger.AccountIdentity) ([]ledger.Transaction, error)
	GetByAccountIDAndDateRange(ctx context.Context, accountID ledger.AccountIdentity, start, end time.Time) ([]ledger.Transaction, error)
	Save(ctx context.Context, tx ledger.Transaction) error
}

// StatementRepository stores generated statements. GetByAccountNumber
// returns the newest statement first.
type StatementRepository interface {
	Save(ctx context.Context, statement *ledger.MonthlyStatement) error
	GetByAccountNumber(ctx context.Context, number uuid.UUID) ([]*ledger.MonthlyStatement, error)
}
