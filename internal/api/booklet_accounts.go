package api

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BookletAccountService orchestrates savings booklet use cases
type BookletAccountService struct {
	accounts store.BookletAccountRepository
	events   *eventEmitter
	policy   ledger.Policy
	retries  int
}

func NewBookletAccountService(accounts store.BookletAccountRepository, events EventPublisher, retries int) *BookletAccountService {
	return &BookletAccountService{
		accounts: accounts,
		events:   &eventEmitter{publisher: events},
		policy:   ledger.PolicyFor(ledger.BookletAccountType),
		retries:  retries,
	}
}

// OpenBookletAccountRequest describes a new booklet account. A nil Number is
// replaced by a generated one and a zero DepositLimit selects the regulatory default.
type OpenBookletAccountRequest struct {
	Number         uuid.UUID
	InitialBalance decimal.Decimal
	DepositLimit   decimal.Decimal
}

func (s *BookletAccountService) Open(ctx context.Context, req OpenBookletAccountRequest) (*models.BookletAccountView, error) {
	account, err := ledger.NewBookletAccount(req.Number, req.InitialBalance, req.DepositLimit, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open booklet account: %w", err)
	}
	s.events.emitOpening(ctx, account, account.CreatedAt)

	zap.L().Info("Booklet account opened",
		zap.String("account_number", account.AccountNumber.String()),
		zap.String("balance", account.Balance.String()),
		zap.String("deposit_limit", account.DepositLimit.String()))
	return bookletAccountView(account), nil
}

func (s *BookletAccountService) Get(ctx context.Context, number uuid.UUID) (*models.BookletAccountView, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return bookletAccountView(account), nil
}

func (s *BookletAccountService) List(ctx context.Context, activeOnly bool) ([]*models.BookletAccountView, error) {
	accounts, err := s.accounts.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	views := make([]*models.BookletAccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, bookletAccountView(account))
	}
	return views, nil
}

func (s *BookletAccountService) Deposit(ctx context.Context, number uuid.UUID, amount decimal.Decimal) (*models.OperationResult, error) {
	return s.operate(ctx, number, ledger.Deposit, amount)
}

func (s *BookletAccountService) Withdraw(ctx context.Context, number uuid.UUID, amount decimal.Decimal) (*models.OperationResult, error) {
	return s.operate(ctx, number, ledger.Withdrawal, amount)
}

func (s *BookletAccountService) operate(ctx context.Context, number uuid.UUID, op ledger.TransactionType, amount decimal.Decimal) (*models.OperationResult, error) {
	var account *ledger.BookletAccount
	err := withRetry(ctx, s.retries, func() error {
		var err error
		if account, err = s.accounts.GetByAccountNumber(ctx, number); err != nil {
			return err
		}
		if err := apply(s.policy, account, op, amount); err != nil {
			return err
		}
		return s.accounts.Save(ctx, account)
	})
	if err != nil {
		logOperationFailure(number.String(), ledger.BookletAccountType, op, amount, err)
		return failedResult(number.String(), ledger.BookletAccountType, op, amount, err), err
	}

	s.events.emit(ctx, ledger.NewTransactionEvent(account, op, amount, account.UpdatedAt))

	zap.L().Info("Booklet account operation processed",
		zap.String("account_number", number.String()),
		zap.String("operation", op.String()),
		zap.String("amount", amount.String()),
		zap.String("new_balance", account.Balance.String()),
		zap.String("remaining_capacity", account.RemainingDepositCapacity().String()))
	return operationResult(account, op, amount), nil
}

func (s *BookletAccountService) UpdateDepositLimit(ctx context.Context, number uuid.UUID, limit decimal.Decimal) (*models.BookletAccountView, error) {
	var account *ledger.BookletAccount
	err := withRetry(ctx, s.retries, func() error {
		var err error
		if account, err = s.accounts.GetByAccountNumber(ctx, number); err != nil {
			return err
		}
		if err := account.SetDepositLimit(limit); err != nil {
			return err
		}
		return s.accounts.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit limit updated",
		zap.String("account_number", number.String()),
		zap.String("deposit_limit", limit.String()))
	return bookletAccountView(account), nil
}

func (s *BookletAccountService) RemainingDepositCapacity(ctx context.Context, number uuid.UUID) (decimal.Decimal, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return decimal.Zero, err
	}
	return account.RemainingDepositCapacity(), nil
}

func (s *BookletAccountService) Activate(ctx context.Context, number uuid.UUID) (*models.BookletAccountView, error) {
	return s.setActive(ctx, number, true)
}

func (s *BookletAccountService) Deactivate(ctx context.Context, number uuid.UUID) (*models.BookletAccountView, error) {
	return s.setActive(ctx, number, false)
}

func (s *BookletAccountService) setActive(ctx context.Context, number uuid.UUID, active bool) (*models.BookletAccountView, error) {
	var account *ledger.BookletAccount
	err := withRetry(ctx, s.retries, func() error {
		var err error
		if account, err = s.accounts.GetByAccountNumber(ctx, number); err != nil {
			return err
		}
		if active {
			account.Activate()
		} else {
			account.Deactivate()
		}
		return s.accounts.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Booklet account status changed",
		zap.String("account_number", number.String()),
		zap.Bool("active", active))
	return bookletAccountView(account), nil
}

// Close deletes a booklet whose balance is zero
func (s *BookletAccountService) Close(ctx context.Context, number uuid.UUID) error {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return err
	}
	if !account.Balance.IsZero() {
		return fmt.Errorf("%w: account %s still holds %s", ledger.ErrBusinessRule, number, account.Balance)
	}
	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		return err
	}
	zap.L().Info("Booklet account closed", zap.String("account_number", number.String()))
	return nil
}
