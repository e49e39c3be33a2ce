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
	"errors"
	"fmt"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher receives a transaction event once the balance change it
// describes has been saved
type EventPublisher interface {
	Dispatch(ctx context.Context, event ledger.TransactionEvent) error
}

// Config wires the application services to their repositories
type Config struct {
	CurrentAccounts store.CurrentAccountRepository
	BookletAccounts store.BookletAccountRepository
	Transactions    store.TransactionRepository
	Statements      store.StatementRepository
	Events          EventPublisher
	Retries         int
}

// LedgerService groups the account and statement use cases
type LedgerService struct {
	Current    *CurrentAccountService
	Booklet    *BookletAccountService
	Statements *StatementService
}

func NewLedgerService(cfg Config) *LedgerService {
	return &LedgerService{
		Current:    NewCurrentAccountService(cfg.CurrentAccounts, cfg.Events, cfg.Retries),
		Booklet:    NewBookletAccountService(cfg.BookletAccounts, cfg.Events, cfg.Retries),
		Statements: NewStatementService(cfg.CurrentAccounts, cfg.BookletAccounts, cfg.Transactions, cfg.Statements),
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if _, err := s.Current.accounts.List(ctx, true); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

type eventEmitter struct {
	publisher EventPublisher
}

// emit logs dispatch failures instead of returning them
func (e *eventEmitter) emit(ctx context.Context, event ledger.TransactionEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if err := e.publisher.Dispatch(ctx, event); err != nil {
		zap.L().Error("Failed to dispatch transaction event",
			zap.String("event_id", event.ID.String()),
			zap.String("account_id", event.AccountID.String()),
			zap.String("operation_type", event.OperationType.String()),
			zap.String("amount", event.Amount.String()),
			zap.Error(err))
	}
}

// emitOpening records a non-zero opening balance so the log sums to it
func (e *eventEmitter) emitOpening(ctx context.Context, account ledger.Account, at time.Time) {
	balance := account.CurrentBalance()
	switch {
	case balance.IsPositive():
		e.emit(ctx, ledger.NewTransactionEvent(account, ledger.Deposit, balance, at))
	case balance.IsNegative():
		e.emit(ctx, ledger.NewTransactionEvent(account, ledger.Withdrawal, balance.Neg(), at))
	}
}

// withRetry re-runs op while it reports a concurrent modification, up to
// retries extra attempts
func withRetry(ctx context.Context, retries int, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, store.ErrConcurrentModification) || attempt >= retries {
			return err
		}
		zap.L().Warn("Concurrent account modification, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", retries))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

// apply runs the shared authorize-then-mutate step for either account kind
func apply(policy ledger.Policy, account ledger.Account, op ledger.TransactionType, amount decimal.Decimal) error {
	if err := ledger.ValidateAmount(amount); err != nil {
		return err
	}
	if !account.IsActive() {
		return fmt.Errorf("%w: account %s is inactive", ledger.ErrBusinessRule, account.Number())
	}

	switch op {
	case ledger.Deposit:
		if err := policy.AuthorizeDeposit(account, amount); err != nil {
			return err
		}
		return account.Deposit(amount)
	case ledger.Withdrawal:
		if err := policy.AuthorizeWithdrawal(account, amount); err != nil {
			return err
		}
		return account.Withdraw(amount)
	default:
		return fmt.Errorf("%w: unsupported operation %q", ledger.ErrBusinessRule, op)
	}
}

func logOperationFailure(account string, accountType ledger.AccountType, op ledger.TransactionType, amount decimal.Decimal, err error) {
	fields := []zap.Field{
		zap.String("account_number", account),
		zap.String("account_type", accountType.String()),
		zap.String("operation", op.String()),
		zap.String("amount", amount.String()),
		zap.Error(err),
	}
	if ledger.IsBusinessError(err) {
		zap.L().Info("Operation rejected", fields...)
		return
	}
	zap.L().Error("Operation failed", fields...)
}
