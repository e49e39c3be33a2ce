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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *CurrentAccountStore must satisfy store.CurrentAccountRepository.
var _ store.CurrentAccountRepository = (*CurrentAccountStore)(nil)

// CurrentAccountStore persists current accounts in SQLite
type CurrentAccountStore struct {
	db *sql.DB
}

func (s *CurrentAccountStore) GetByIdentity(ctx context.Context, id ledger.AccountIdentity) (*ledger.CurrentAccount, error) {
	account, err := scanCurrentAccount(s.db.QueryRowContext(ctx, queryGetCurrentAccountById, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: current account %s", ledger.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current account: %w", err)
	}
	return account, nil
}

func (s *CurrentAccountStore) GetByAccountNumber(ctx context.Context, number uuid.UUID) (*ledger.CurrentAccount, error) {
	account, err := scanCurrentAccount(s.db.QueryRowContext(ctx, queryGetCurrentAccountByNumber, number.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: current account number %s", ledger.ErrNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current account: %w", err)
	}
	return account, nil
}

// Save inserts a new account (Version 0) or updates an existing one with an
// optimistic version check.
func (s *CurrentAccountStore) Save(ctx context.Context, account *ledger.CurrentAccount) error {
	if account.Version == 0 {
		_, err := s.db.ExecContext(ctx, queryInsertCurrentAccount,
			account.ID.String(), account.AccountNumber.String(),
			account.Balance.String(), account.OverdraftLimit.String(),
			account.OverdraftAllowed, account.Active,
			account.CreatedAt, account.UpdatedAt)
		if err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("%w: account number %s already exists", ledger.ErrBusinessRule, account.AccountNumber)
			}
			return fmt.Errorf("failed to insert current account: %w", err)
		}
		account.Version = 1
		zap.L().Info("Current account created",
			zap.String("account_number", account.AccountNumber.String()),
			zap.String("balance", account.Balance.String()))
		return nil
	}

	result, err := s.db.ExecContext(ctx, queryUpdateCurrentAccount,
		account.Balance.String(), account.OverdraftLimit.String(),
		account.OverdraftAllowed, account.Active, account.UpdatedAt,
		account.ID.String(), account.Version)
	if err != nil {
		return fmt.Errorf("failed to update current account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		found, err := exists(ctx, s.db, queryCurrentAccountExists, account.ID.String())
		if err != nil {
			return fmt.Errorf("failed to check current account: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: current account %s", ledger.ErrNotFound, account.ID)
		}
		return fmt.Errorf("current account update failed - %w", store.ErrConcurrentModification)
	}

	account.Version++
	return nil
}

func (s *CurrentAccountStore) Delete(ctx context.Context, id ledger.AccountIdentity) error {
	result, err := s.db.ExecContext(ctx, queryDeleteCurrentAccount, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete current account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: current account %s", ledger.ErrNotFound, id)
	}
	return nil
}

func (s *CurrentAccountStore) UpdateOverdraftLimit(ctx context.Context, number uuid.UUID, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("%w: overdraft limit cannot be negative, got %s", ledger.ErrInvalidAmount, limit)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateOverdraftLimit, limit.String(), time.Now().UTC(), number.String())
	if err != nil {
		return fmt.Errorf("failed to update overdraft limit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: current account number %s", ledger.ErrNotFound, number)
	}

	zap.L().Info("Overdraft limit updated",
		zap.String("account_number", number.String()),
		zap.String("overdraft_limit", limit.String()))
	return nil
}

func (s *CurrentAccountStore) List(ctx context.Context, activeOnly bool) ([]*ledger.CurrentAccount, error) {
	rows, err := s.db.QueryContext(ctx, queryListCurrentAccounts, activeOnly)
	if err != nil {
		zap.L().Error("Failed to list current accounts", zap.Error(err))
		return nil, fmt.Errorf("failed to list current accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []*ledger.CurrentAccount
	for rows.Next() {
		account, err := scanCurrentAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during current account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating current account rows: %w", err)
	}

	return accounts, nil
}

func scanCurrentAccount(row rowScanner) (*ledger.CurrentAccount, error) {
	var (
		id, number, balanceStr, limitStr string
		account                          ledger.CurrentAccount
	)
	err := row.Scan(&id, &number, &balanceStr, &limitStr,
		&account.OverdraftAllowed, &account.Active, &account.Version,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan current account: %w", err)
	}

	if account.ID, err = ledger.ParseAccountIdentity(id); err != nil {
		return nil, err
	}
	if account.AccountNumber, err = uuid.Parse(number); err != nil {
		return nil, fmt.Errorf("failed to parse account number '%s': %w", number, err)
	}
	if account.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if account.OverdraftLimit, err = decimal.NewFromString(limitStr); err != nil {
		return nil, fmt.Errorf("failed to parse overdraft limit '%s': %w", limitStr, err)
	}
	return &account, nil
}
