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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookletAccount is a savings account capped by a deposit limit.
// Invariant: 0 <= Balance <= DepositLimit.
type BookletAccount struct {
	ID            AccountIdentity
	AccountNumber uuid.UUID
	Balance       decimal.Decimal
	DepositLimit  decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// NewBookletAccount opens an active booklet account. A zero depositLimit
// selects DefaultDepositLimit.
func NewBookletAccount(number uuid.UUID, balance, depositLimit decimal.Decimal, now time.Time) (*BookletAccount, error) {
	if number == uuid.Nil {
		number = uuid.New()
	}
	if depositLimit.IsZero() {
		depositLimit = DefaultDepositLimit
	}
	account := &BookletAccount{
		ID:            NewAccountIdentity(),
		AccountNumber: number,
		Balance:       balance,
		DepositLimit:  depositLimit,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

func (a *BookletAccount) Validate() error {
	if a.DepositLimit.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: deposit limit must be positive, got %s", ErrInvalidAmount, a.DepositLimit)
	}
	if a.Balance.IsNegative() {
		return fmt.Errorf("%w: balance %s is negative", ErrInsufficientFunds, a.Balance)
	}
	if a.Balance.GreaterThan(a.DepositLimit) {
		return fmt.Errorf("%w: balance %s exceeds limit %s", ErrDepositLimitExceeded, a.Balance, a.DepositLimit)
	}
	return nil
}

func (a *BookletAccount) Identity() AccountIdentity         { return a.ID }
func (a *BookletAccount) Number() uuid.UUID                 { return a.AccountNumber }
func (a *BookletAccount) Type() AccountType                 { return BookletAccountType }
func (a *BookletAccount) CurrentBalance() decimal.Decimal   { return a.Balance }
func (a *BookletAccount) AvailableBalance() decimal.Decimal { return a.Balance }
func (a *BookletAccount) IsActive() bool                    { return a.Active }

func (a *BookletAccount) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

func (a *BookletAccount) RemainingDepositCapacity() decimal.Decimal {
	return maxDecimal(decimal.Zero, a.DepositLimit.Sub(a.Balance))
}

func (a *BookletAccount) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	next := a.Balance.Add(amount)
	if next.GreaterThan(a.DepositLimit) {
		return fmt.Errorf("%w: deposit of %s exceeds limit %s (remaining capacity %s)",
			ErrDepositLimitExceeded, amount, a.DepositLimit, a.RemainingDepositCapacity())
	}
	a.Balance = next
	a.touch()
	return nil
}

func (a *BookletAccount) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(a.Balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, a.Balance, amount)
	}
	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

// SetDepositLimit replaces the limit; it cannot drop below the current balance.
func (a *BookletAccount) SetDepositLimit(limit decimal.Decimal) error {
	if limit.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: deposit limit must be positive, got %s", ErrInvalidAmount, limit)
	}
	if a.Balance.GreaterThan(limit) {
		return fmt.Errorf("%w: balance %s exceeds requested deposit limit %s", ErrBusinessRule, a.Balance, limit)
	}
	a.DepositLimit = limit
	a.touch()
	return nil
}

func (a *BookletAccount) Activate() {
	a.Active = true
	a.touch()
}

func (a *BookletAccount) Deactivate() {
	a.Active = false
	a.touch()
}

func (a *BookletAccount) touch() {
	a.UpdatedAt = time.Now().UTC()
}
