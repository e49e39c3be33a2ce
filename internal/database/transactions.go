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

// Compile-time check: *TransactionStore must satisfy store.TransactionRepository.
var _ store.TransactionRepository = (*TransactionStore)(nil)

// TransactionStore is the append-only transaction log in SQLite
type TransactionStore struct {
	db *sql.DB
}

// Save appends a transaction. A repeated id is reported as
// store.ErrDuplicateTransaction so recorders can treat redelivery as success.
func (s *TransactionStore) Save(ctx context.Context, tx ledger.Transaction) error {
	zap.L().Debug("Recording transaction",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("account_id", tx.AccountID.String()),
		zap.String("type", tx.Type.String()),
		zap.String("amount", tx.Amount.String()))

	// Check for duplicate transaction Id
	var existingTxId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateTransaction, tx.ID.String()).Scan(&existingTxId)
	if err == nil {
		zap.L().Warn("Duplicate transaction Id detected, skipping",
			zap.String("transaction_id", existingTxId))
		return fmt.Errorf("%w: transaction %s already exists", store.ErrDuplicateTransaction, tx.ID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertTransaction,
		tx.ID.String(), tx.AccountID.String(), tx.AccountType.String(),
		tx.Type.String(), tx.Amount.String(), toUnixNano(tx.OccurredAt))
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: transaction %s already exists", store.ErrDuplicateTransaction, tx.ID)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) GetByAccountID(ctx context.Context, accountID ledger.AccountIdentity) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionsByAccount, accountID.String())
	if err != nil {
		zap.L().Error("Failed to get transactions", zap.String("account_id", accountID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return scanTransactions(rows)
}

func (s *TransactionStore) GetByAccountIDAndDateRange(ctx context.Context, accountID ledger.AccountIdentity, start, end time.Time) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransactionsByAccountAndRange,
		accountID.String(), toUnixNano(start), toUnixNano(end))
	if err != nil {
		zap.L().Error("Failed to get transactions in range",
			zap.String("account_id", accountID.String()),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return scanTransactions(rows)
}

// ReconcileBalance verifies that an account's balance matches the sum of its
// recorded transactions.
func (s *TransactionStore) ReconcileBalance(ctx context.Context, account ledger.Account) error {
	accountID := account.Identity()
	zap.L().Info("Reconciling balance", zap.String("account_number", account.Number().String()))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionAmounts, accountID.String())
	if err != nil {
		return fmt.Errorf("failed to calculate balance from transactions: %w", err)
	}
	defer closeRows(rows)

	calculatedBalance := decimal.Zero
	for rows.Next() {
		var txType, amountStr string
		if err := rows.Scan(&txType, &amountStr); err != nil {
			return fmt.Errorf("failed to scan transaction amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		if ledger.TransactionType(txType) == ledger.Withdrawal {
			amount = amount.Neg()
		}
		calculatedBalance = calculatedBalance.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating transaction rows: %w", err)
	}

	// Check if balances match (exact decimal comparison)
	currentBalance := account.CurrentBalance()
	if !currentBalance.Equal(calculatedBalance) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_number", account.Number().String()),
			zap.String("current_balance", currentBalance.String()),
			zap.String("calculated_balance", calculatedBalance.String()),
			zap.String("difference", currentBalance.Sub(calculatedBalance).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", currentBalance.String(), calculatedBalance.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account_number", account.Number().String()),
		zap.String("balance", currentBalance.String()))
	return nil
}

func scanTransactions(rows *sql.Rows) ([]ledger.Transaction, error) {
	defer closeRows(rows)

	var transactions []ledger.Transaction
	for rows.Next() {
		var (
			id, accountID, accountType, txType, amountStr string
			occurredAt                                    int64
		)
		if err := rows.Scan(&id, &accountID, &accountType, &txType, &amountStr, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txId, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction id '%s': %w", id, err)
		}
		identity, err := ledger.ParseAccountIdentity(accountID)
		if err != nil {
			return nil, err
		}
		transactionType, err := ledger.ParseTransactionType(txType)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", id, err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}

		transactions = append(transactions, ledger.Transaction{
			ID:          txId,
			AccountID:   identity,
			AccountType: ledger.AccountType(accountType),
			Type:        transactionType,
			Amount:      amount,
			OccurredAt:  fromUnixNano(occurredAt),
		})
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
