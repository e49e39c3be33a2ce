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
	"fmt"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *StatementStore must satisfy store.StatementRepository.
var _ store.StatementRepository = (*StatementStore)(nil)

// StatementStore persists generated statements together with a snapshot of
// their transaction lines
type StatementStore struct {
	db *sql.DB
}

func (s *StatementStore) Save(ctx context.Context, statement *ledger.MonthlyStatement) error {
	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			zap.L().Warn("Failed to roll back statement transaction", zap.Error(err))
		}
	}()

	_, err = tx.ExecContext(ctx, queryInsertStatement,
		statement.ID.String(), statement.AccountID.String(), statement.AccountType.String(),
		statement.AccountNumber.String(),
		toUnixNano(statement.PeriodStart), toUnixNano(statement.PeriodEnd), toUnixNano(statement.GeneratedAt),
		statement.OpeningBalance.String(), statement.ClosingBalance.String())
	if err != nil {
		return fmt.Errorf("failed to insert statement: %w", err)
	}

	for position, line := range statement.Transactions {
		_, err = tx.ExecContext(ctx, queryInsertStatementTransaction,
			statement.ID.String(), line.ID.String(), position,
			line.Type.String(), line.Amount.String(), toUnixNano(line.OccurredAt))
		if err != nil {
			return fmt.Errorf("failed to insert statement line %d: %w", position, err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Statement saved",
		zap.String("statement_id", statement.ID.String()),
		zap.String("account_number", statement.AccountNumber.String()),
		zap.Int("transactions", len(statement.Transactions)))
	return nil
}

func (s *StatementStore) GetByAccountNumber(ctx context.Context, number uuid.UUID) ([]*ledger.MonthlyStatement, error) {
	statements, err := s.getStatementHeaders(ctx, number)
	if err != nil {
		return nil, err
	}

	for _, statement := range statements {
		lines, err := s.getStatementLines(ctx, statement)
		if err != nil {
			return nil, err
		}
		statement.Transactions = lines
	}
	return statements, nil
}

func (s *StatementStore) getStatementHeaders(ctx context.Context, number uuid.UUID) ([]*ledger.MonthlyStatement, error) {
	rows, err := s.db.QueryContext(ctx, queryGetStatementsByAccountNumber, number.String())
	if err != nil {
		zap.L().Error("Failed to get statements", zap.String("account_number", number.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get statements: %w", err)
	}
	defer closeRows(rows)

	var statements []*ledger.MonthlyStatement
	for rows.Next() {
		var (
			id, accountID, accountType, accountNumber string
			periodStart, periodEnd, generatedAt       int64
			openingStr, closingStr                    string
		)
		err := rows.Scan(&id, &accountID, &accountType, &accountNumber,
			&periodStart, &periodEnd, &generatedAt, &openingStr, &closingStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}

		statement := &ledger.MonthlyStatement{
			AccountType: ledger.AccountType(accountType),
			PeriodStart: fromUnixNano(periodStart),
			PeriodEnd:   fromUnixNano(periodEnd),
			GeneratedAt: fromUnixNano(generatedAt),
		}
		if statement.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse statement id '%s': %w", id, err)
		}
		if statement.AccountID, err = ledger.ParseAccountIdentity(accountID); err != nil {
			return nil, err
		}
		if statement.AccountNumber, err = uuid.Parse(accountNumber); err != nil {
			return nil, fmt.Errorf("failed to parse account number '%s': %w", accountNumber, err)
		}
		if statement.OpeningBalance, err = decimal.NewFromString(openingStr); err != nil {
			return nil, fmt.Errorf("failed to parse opening balance '%s': %w", openingStr, err)
		}
		if statement.ClosingBalance, err = decimal.NewFromString(closingStr); err != nil {
			return nil, fmt.Errorf("failed to parse closing balance '%s': %w", closingStr, err)
		}
		statements = append(statements, statement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement rows: %w", err)
	}
	return statements, nil
}

func (s *StatementStore) getStatementLines(ctx context.Context, statement *ledger.MonthlyStatement) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetStatementTransactions, statement.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get statement lines: %w", err)
	}
	defer closeRows(rows)

	lines := make([]ledger.Transaction, 0)
	for rows.Next() {
		var (
			id, txType, amountStr string
			occurredAt            int64
		)
		if err := rows.Scan(&id, &txType, &amountStr, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		txId, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction id '%s': %w", id, err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		lines = append(lines, ledger.Transaction{
			ID:          txId,
			AccountID:   statement.AccountID,
			AccountType: statement.AccountType,
			Type:        ledger.TransactionType(txType),
			Amount:      amount,
			OccurredAt:  fromUnixNano(occurredAt),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement line rows: %w", err)
	}
	return lines, nil
}
