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

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *BookletAccountStore must satisfy store.BookletAccountRepository.
var _ store.BookletAccountRepository = (*BookletAccountStore)(nil)

// BookletAccountStore persists booklet accounts in SQLite
type BookletAccountStore struct {
	db *sql.DB
}

func (s *BookletAccountStore) GetByIdentity(ctx context.Context, id ledger.AccountIdentity) (*ledger.BookletAccount, error) {
	account, err := scanBookletAccount(s.db.QueryRowContext(ctx, queryGetBookletAccountById, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booklet account %s", ledger.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booklet account: %w", err)
	}
	return account, nil
}

func (s *BookletAccountStore) GetByAccountNumber(ctx context.Context, number uuid.UUID) (*ledger.BookletAccount, error) {
	account, err := scanBookletAccount(s.db.QueryRowContext(ctx, queryGetBookletAccountByNumber, number.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booklet account number %s", ledger.ErrNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booklet account: %w", err)
	}
	return account, nil
}

func (s *BookletAccountStore) Save(ctx context.Context, account *ledger.BookletAccount) error {
	if account.Version == 0 {
		_, err := s.db.ExecContext(ctx, queryInsertBookletAccount,
			account.ID.String(), account.AccountNumber.String(),
			account.Balance.String(), account.DepositLimit.String(),
			account.Active, account.CreatedAt, account.UpdatedAt)
		if err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("%w: account number %s already exists", ledger.ErrBusinessRule, account.AccountNumber)
			}
			return fmt.Errorf("failed to insert booklet account: %w", err)
		}
		account.Version = 1
		zap.L().Info("Booklet account created",
			zap.String("account_number", account.AccountNumber.String()),
			zap.String("deposit_limit", account.DepositLimit.String()))
		return nil
	}

	result, err := s.db.ExecContext(ctx, queryUpdateBookletAccount,
		account.Balance.String(), account.DepositLimit.String(),
		account.Active, account.UpdatedAt,
		account.ID.String(), account.Version)
	if err != nil {
		return fmt.Errorf("failed to update booklet account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		found, err := exists(ctx, s.db, queryBookletAccountExists, account.ID.String())
		if err != nil {
			return fmt.Errorf("failed to check booklet account: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: booklet account %s", ledger.ErrNotFound, account.ID)
		}
		return fmt.Errorf("booklet account update failed - %w", store.ErrConcurrentModification)
	}

	account.Version++
	return nil
}

func (s *BookletAccountStore) Delete(ctx context.Context, id ledger.AccountIdentity) error {
	result, err := s.db.ExecContext(ctx, queryDeleteBookletAccount, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete booklet account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: booklet account %s", ledger.ErrNotFound, id)
	}
	return nil
}

func (s *BookletAccountStore) List(ctx context.Context, activeOnly bool) ([]*ledger.BookletAccount, error) {
	rows, err := s.db.QueryContext(ctx, queryListBookletAccounts, activeOnly)
	if err != nil {
		zap.L().Error("Failed to list booklet accounts", zap.Error(err))
		return nil, fmt.Errorf("failed to list booklet accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []*ledger.BookletAccount
	for rows.Next() {
		account, err := scanBookletAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booklet account rows: %w", err)
	}

	return accounts, nil
}

func scanBookletAccount(row rowScanner) (*ledger.BookletAccount, error) {
	var (
		id, number, balanceStr, limitStr string
		account                          ledger.BookletAccount
	)
	err := row.Scan(&id, &number, &balanceStr, &limitStr,
		&account.Active, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan booklet account: %w", err)
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
	if account.DepositLimit, err = decimal.NewFromString(limitStr); err != nil {
		return nil, fmt.Errorf("failed to parse deposit limit '%s': %w", limitStr, err)
	}
	return &account, nil
}
