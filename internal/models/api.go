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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentAccountView is the client-facing projection of a current account
type CurrentAccountView struct {
	AccountNumber    string          `json:"account_number"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	OverdraftAllowed bool            `json:"overdraft_allowed"`
	OverdraftLimit   decimal.Decimal `json:"overdraft_limit"`
	OverdraftUsed    decimal.Decimal `json:"overdraft_used"`
	InOverdraft      bool            `json:"in_overdraft"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BookletAccountView is the client-facing projection of a booklet account
type BookletAccountView struct {
	AccountNumber            string          `json:"account_number"`
	Balance                  decimal.Decimal `json:"balance"`
	DepositLimit             decimal.Decimal `json:"deposit_limit"`
	RemainingDepositCapacity decimal.Decimal `json:"remaining_deposit_capacity"`
	Active                   bool            `json:"active"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// TransactionView represents a transaction line on a statement
type TransactionView struct {
	Id         string          `json:"id"`
	Type       string          `json:"type"` // "DEPOSIT", "WITHDRAWAL"
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// StatementView represents a generated monthly statement
type StatementView struct {
	Id               string            `json:"id"`
	AccountNumber    string            `json:"account_number"`
	AccountType      string            `json:"account_type"`
	PeriodStart      time.Time         `json:"period_start"`
	PeriodEnd        time.Time         `json:"period_end"`
	GeneratedAt      time.Time         `json:"generated_at"`
	OpeningBalance   decimal.Decimal   `json:"opening_balance"`
	ClosingBalance   decimal.Decimal   `json:"closing_balance"`
	TotalDeposits    decimal.Decimal   `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal   `json:"total_withdrawals"`
	Reconciled       bool              `json:"reconciled"`
	Transactions     []TransactionView `json:"transactions"`
}

// OperationResult represents the result of a deposit or withdrawal
type OperationResult struct {
	Success          bool            `json:"success"`
	AccountNumber    string          `json:"account_number,omitempty"`
	AccountType      string          `json:"account_type,omitempty"`
	Operation        string          `json:"operation,omitempty"`
	Amount           decimal.Decimal `json:"amount,omitempty"`
	NewBalance       decimal.Decimal `json:"new_balance,omitempty"`
	AvailableBalance decimal.Decimal `json:"available_balance,omitempty"`
	Error            string          `json:"error,omitempty"`
}
