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

package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementPeriod is the fixed statement window. It is not calendar aware.
const StatementPeriod = 30 * 24 * time.Hour

// MonthlyStatement is a generated, never mutated, account statement.
// Transactions are restricted to the period and ordered newest first.
type MonthlyStatement struct {
	ID             uuid.UUID
	AccountID      AccountIdentity
	AccountType    AccountType
	AccountNumber  uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	GeneratedAt    time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Transactions   []Transaction
}

func (s *MonthlyStatement) TotalDeposits() decimal.Decimal {
	return s.total(Deposit)
}

func (s *MonthlyStatement) TotalWithdrawals() decimal.Decimal {
	return s.total(Withdrawal)
}

func (s *MonthlyStatement) NetChange() decimal.Decimal {
	return s.TotalDeposits().Sub(s.TotalWithdrawals())
}

// Reconciles reports whether closing == opening + deposits - withdrawals.
// It only holds when the transaction log is complete.
func (s *MonthlyStatement) Reconciles() bool {
	return s.OpeningBalance.Add(s.NetChange()).Equal(s.ClosingBalance)
}

func (s *MonthlyStatement) total(t TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range s.Transactions {
		if tx.Type == t {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// StatementGenerator builds statements from an account and its full log.
type StatementGenerator struct {
	Now   func() time.Time
	NewID func() uuid.UUID
}

func NewStatementGenerator() *StatementGenerator {
	return &StatementGenerator{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.New,
	}
}

// GenerateMonthlyStatement covers [periodEnd-30d, periodEnd]. It performs no I/O
// and does not touch the account. The closing balance is the balance at
// periodEnd, which equals the current balance when nothing happened after it.
func (g *StatementGenerator) GenerateMonthlyStatement(account Account, transactions []Transaction, periodEnd time.Time) *MonthlyStatement {
	periodStart := periodEnd.Add(-StatementPeriod)
	current := account.CurrentBalance()

	return &MonthlyStatement{
		ID:             g.NewID(),
		AccountID:      account.Identity(),
		AccountType:    account.Type(),
		AccountNumber:  account.Number(),
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		GeneratedAt:    g.Now(),
		OpeningBalance: OpeningBalance(current, transactions, periodStart),
		ClosingBalance: BalanceAt(current, transactions, periodEnd),
		Transactions:   PeriodTransactions(transactions, periodStart, periodEnd),
	}
}

// PeriodTransactions returns the transactions with start <= OccurredAt <= end,
// newest first.
func PeriodTransactions(transactions []Transaction, start, end time.Time) []Transaction {
	period := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.OccurredAt.Before(start) || tx.OccurredAt.After(end) {
			continue
		}
		period = append(period, tx)
	}
	sortNewestFirst(period)
	return period
}

// OpeningBalance reconstructs the balance at the instant periodStart by walking
// the log backward from now and undoing every transaction that happened at or
// after periodStart.
func OpeningBalance(currentBalance decimal.Decimal, transactions []Transaction, periodStart time.Time) decimal.Decimal {
	return rewind(currentBalance, transactions, func(tx Transaction) bool {
		return !tx.OccurredAt.Before(periodStart)
	})
}

// BalanceAt is the balance just after every transaction up to and including
// instant has been applied.
func BalanceAt(currentBalance decimal.Decimal, transactions []Transaction, instant time.Time) decimal.Decimal {
	return rewind(currentBalance, transactions, func(tx Transaction) bool {
		return tx.OccurredAt.After(instant)
	})
}

// rewind undoes transactions newest first while undo holds: a deposit is
// subtracted back out, a withdrawal is added back in.
func rewind(balance decimal.Decimal, transactions []Transaction, undo func(Transaction) bool) decimal.Decimal {
	ordered := slices.Clone(transactions)
	sortNewestFirst(ordered)

	for _, tx := range ordered {
		if !undo(tx) {
			break
		}
		balance = balance.Sub(tx.SignedAmount())
	}
	return balance
}

func sortNewestFirst(transactions []Transaction) {
	slices.SortStableFunc(transactions, func(a, b Transaction) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
}
