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

	"github.com/shopspring/decimal"
)

// Policy is a stateless pre-mutation gate. Callers authorize first and only
// then mutate the entity.
type Policy interface {
	AuthorizeDeposit(account Account, amount decimal.Decimal) error
	AuthorizeWithdrawal(account Account, amount decimal.Decimal) error
}

var (
	_ Policy = OverdraftPolicy{}
	_ Policy = DepositLimitPolicy{}
)

// PolicyFor returns the authorization policy for an account variant.
func PolicyFor(t AccountType) Policy {
	if t == BookletAccountType {
		return DepositLimitPolicy{}
	}
	return OverdraftPolicy{}
}

// OverdraftPolicy authorizes current account operations.
type OverdraftPolicy struct{}

func (OverdraftPolicy) AuthorizeDeposit(_ Account, amount decimal.Decimal) error {
	return ValidateAmount(amount)
}

func (OverdraftPolicy) AuthorizeWithdrawal(account Account, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if account.HasSufficientFunds(amount) {
		return nil
	}
	if current, ok := account.(*CurrentAccount); ok && current.OverdraftLimit.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: available %s (limit %s), requested %s",
			ErrOverdraftLimitExceeded, current.AvailableBalance(), current.OverdraftLimit, amount)
	}
	return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientFunds, account.AvailableBalance(), amount)
}

// CanWithdraw reports whether AuthorizeWithdrawal would succeed.
func (p OverdraftPolicy) CanWithdraw(account Account, amount decimal.Decimal) bool {
	return p.AuthorizeWithdrawal(account, amount) == nil
}

// DepositLimitPolicy authorizes booklet account operations.
type DepositLimitPolicy struct{}

func (DepositLimitPolicy) AuthorizeDeposit(account Account, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	booklet, ok := account.(*BookletAccount)
	if !ok {
		return nil
	}
	if booklet.Balance.Add(amount).GreaterThan(booklet.DepositLimit) {
		return fmt.Errorf("%w: deposit of %s exceeds remaining capacity %s",
			ErrDepositLimitExceeded, amount, booklet.RemainingDepositCapacity())
	}
	return nil
}

func (DepositLimitPolicy) AuthorizeWithdrawal(account Account, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !account.HasSufficientFunds(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, account.CurrentBalance(), amount)
	}
	return nil
}

func (p DepositLimitPolicy) CanDeposit(account Account, amount decimal.Decimal) bool {
	return p.AuthorizeDeposit(account, amount) == nil
}

func (p DepositLimitPolicy) CanWithdraw(account Account, amount decimal.Decimal) bool {
	return p.AuthorizeWithdrawal(account, amount) == nil
}
