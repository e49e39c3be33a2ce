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

// CurrentAccount is a bank account that may run an authorized overdraft.
type CurrentAccount struct {
	ID               AccountIdentity
	AccountNumber    uuid.UUID
	Balance          decimal.Decimal
	OverdraftLimit   decimal.Decimal
	OverdraftAllowed bool
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

// NewCurrentAccount opens an active current account with a fresh identity.
func NewCurrentAccount(number uuid.UUID, balance, overdraftLimit decimal.Decimal, overdraftAllowed bool, now time.Time) (*CurrentAccount, error) {
	if number == uuid.Nil {
		number = uuid.New()
	}
	account := &CurrentAccount{
		ID:               NewAccountIdentity(),
		AccountNumber:    number,
		Balance:          balance,
		OverdraftLimit:   overdraftLimit,
		OverdraftAllowed: overdraftAllowed,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if account.Balance.LessThan(account.floor()) {
		return nil, fmt.Errorf("%w: opening balance %s is below -%s", ErrOverdraftLimitExceeded, balance, overdraftLimit)
	}
	return account, nil
}

// Validate checks the hard invariants of a stored account. A balance below a
// lowered overdraft limit is tolerated; the limit only gates new withdrawals.
func (a *CurrentAccount) Validate() error {
	if a.OverdraftLimit.IsNegative() {
		return fmt.Errorf("%w: overdraft limit cannot be negative, got %s", ErrInvalidAmount, a.OverdraftLimit)
	}
	if !a.OverdraftAllowed && a.Balance.IsNegative() {
		return fmt.Errorf("%w: balance %s is negative and overdraft is not allowed", ErrInsufficientFunds, a.Balance)
	}
	return nil
}

func (a *CurrentAccount) Identity() AccountIdentity       { return a.ID }
func (a *CurrentAccount) Number() uuid.UUID               { return a.AccountNumber }
func (a *CurrentAccount) Type() AccountType               { return CurrentAccountType }
func (a *CurrentAccount) CurrentBalance() decimal.Decimal { return a.Balance }
func (a *CurrentAccount) IsActive() bool                  { return a.Active }

func (a *CurrentAccount) AvailableBalance() decimal.Decimal {
	if a.OverdraftAllowed {
		return a.Balance.Add(a.OverdraftLimit)
	}
	return a.Balance
}

func (a *CurrentAccount) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.AvailableBalance().GreaterThanOrEqual(amount)
}

func (a *CurrentAccount) InOverdraft() bool {
	return a.Balance.IsNegative()
}

func (a *CurrentAccount) OverdraftUsed() decimal.Decimal {
	return maxDecimal(decimal.Zero, a.Balance.Neg())
}

// Deposit credits the account.
func (a *CurrentAccount) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	next := a.Balance.Add(amount)
	if !a.OverdraftAllowed && next.IsNegative() {
		return fmt.Errorf("%w: deposit of %s leaves balance at %s", ErrInvalidAmount, amount, next)
	}
	a.Balance = next
	a.touch()
	return nil
}

// Withdraw debits the account. With overdraft enabled the caller must have
// authorized the withdrawal through OverdraftPolicy first; without it the
// balance may never go negative.
func (a *CurrentAccount) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.OverdraftAllowed && amount.GreaterThan(a.Balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, a.Balance, amount)
	}
	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

// SetOverdraftLimit replaces the limit. Current overdraft usage is not checked.
func (a *CurrentAccount) SetOverdraftLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("%w: overdraft limit cannot be negative, got %s", ErrInvalidAmount, limit)
	}
	a.OverdraftLimit = limit
	a.touch()
	return nil
}

func (a *CurrentAccount) Activate() {
	a.Active = true
	a.touch()
}

func (a *CurrentAccount) Deactivate() {
	a.Active = false
	a.touch()
}

func (a *CurrentAccount) floor() decimal.Decimal {
	if a.OverdraftAllowed {
		return a.OverdraftLimit.Neg()
	}
	return decimal.Zero
}

func (a *CurrentAccount) touch() {
	a.UpdatedAt = time.Now().UTC()
}
