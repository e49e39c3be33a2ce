/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

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

// OpenCurrentAccountRequest describes a new current account. A nil Number
// is replaced by a generated one.
type OpenCurrentAccountRequest struct {
	Number           uuid.UUID
	InitialBalance   decimal.Decimal
	OverdraftLimit   decimal.Decimal
	OverdraftAllowed bool
}

// CurrentAccountService orchestrates current account use cases
type CurrentAccountService struct {
	accounts store.CurrentAccountRepository
	events   *eventEmitter
	policy   ledger.Policy
	retries  int
}

func NewCurrentAccountService(accounts store.CurrentAccountRepository, events EventPublisher, retries int) *CurrentAccountService {
	return &CurrentAccountService{
		accounts: accounts,
		events:   &eventEmitter{publisher: events},
		policy:   ledger.PolicyFor(ledger.CurrentAccountType),
		retries:  retries,
	}
}

func (s *CurrentAccountService) Open(ctx context.Context, req OpenCurrentAccountRequest) (*models.CurrentAccountView, error) {
	account, err := ledger.NewCurrentAccount(req.Number, req.InitialBalance, req.OverdraftLimit, req.OverdraftAllowed, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open current account: %w", err)
	}
	s.events.emitOpening(ctx, account, account.CreatedAt)

	zap.L().Info("Current account opened",
		zap.String("account_number", account.AccountNumber.String()),
		zap.String("balance", account.Balance.String()),
		zap.Bool("overdraft_allowed", account.OverdraftAllowed),
		zap.String("overdraft_limit", account.OverdraftLimit.String()))
	return currentAccountView(account), nil
}

func (s *CurrentAccountService) Get(ctx context.Context, number uuid.UUID) (*models.CurrentAccountView, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return currentAccountView(account), nil
}

func (s *CurrentAccountService) List(ctx context.Context, activeOnly bool) ([]*models.CurrentAccountView, error) {
	accounts, err := s.accounts.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	views := make([]*models.CurrentAccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, currentAccountView(account))
	}
	return views, nil
}

func (s *CurrentAccountService) Deposit(ctx context.Context, number uuid.UUID, amount decimal.Decimal) (*models.OperationResult, error) {
	return s.operate(ctx, number, ledger.Deposit, amount)
}

func (s *CurrentAccountService) Withdraw(ctx context.Context, number uuid.UUID, amount decimal.Decimal) (*models.OperationResult, error) {
	return s.operate(ctx, number, ledger.Withdrawal, amount)
}

func (s *CurrentAccountService) operate(ctx context.Context, number uuid.UUID, op ledger.TransactionType, amount decimal.Decimal) (*models.OperationResult, error) {
	var account *ledger.CurrentAccount
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
		logOperationFailure(number.String(), ledger.CurrentAccountType, op, amount, err)
		return failedResult(number.String(), ledger.CurrentAccountType, op, amount, err), err
	}

	s.events.emit(ctx, ledger.NewTransactionEvent(account, op, amount, account.UpdatedAt))

	zap.L().Info("Current account operation processed",
		zap.String("account_number", number.String()),
		zap.String("operation", op.String()),
		zap.String("amount", amount.String()),
		zap.String("new_balance", account.Balance.String()))
	return operationResult(account, op, amount), nil
}

// SetOverdraftLimit replaces the limit without checking current usage
func (s *CurrentAccountService) SetOverdraftLimit(ctx context.Context, number uuid.UUID, limit decimal.Decimal) (*models.CurrentAccountView, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := account.SetOverdraftLimit(limit); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateOverdraftLimit(ctx, number, limit); err != nil {
		return nil, fmt.Errorf("failed to update overdraft limit: %w", err)
	}

	zap.L().Info("Overdraft limit updated",
		zap.String("account_number", number.String()),
		zap.String("overdraft_limit", limit.String()),
		zap.Bool("in_overdraft", account.InOverdraft()))
	return currentAccountView(account), nil
}

func (s *CurrentAccountService) AvailableBalance(ctx context.Context, number uuid.UUID) (decimal.Decimal, error) {
	account, err := s.accounts.GetByAccountNumber(ctx, number)
	if err != nil {
		return decimal.Zero, err
	}
	return account.AvailableBalance(), nil
}

func (s *CurrentAccountService) Activate(ctx context.Context, number uuid.UUID) (*models.CurrentAccountView, error) {
	return s.setActive(ctx, number, true)
}

func (s *CurrentAccountService) Deactivate(ctx context.Context, number uuid.UUID) (*models.CurrentAccountView, error) {
	return s.setActive(ctx, number, false)
}

func (s *CurrentAccountService) setActive(ctx context.Context, number uuid.UUID, active bool) (*models.CurrentAccountView, error) {
	var account *ledger.CurrentAccount
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
	zap.L().Info("Current account status changed",
		zap.String("account_number", number.String()),
		zap.Bool("active", active))
	return currentAccountView(account), nil
}

// Close deletes an account whose balance is zero
func (s *CurrentAccountService) Close(ctx context.Context, number uuid.UUID) error {
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
	zap.L().Info("Current account closed", zap.String("account_number", number.String()))
	return nil
}
