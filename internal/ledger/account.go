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
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType discriminates the concrete account variant for persistence and events
type AccountType string

const (
	CurrentAccountType AccountType = "CURRENT_ACCOUNT"
	BookletAccountType AccountType = "BOOKLET_ACCOUNT"
)

func (t AccountType) String() string { return string(t) }

// ParseAccountType accepts the canonical names as well as the short CLI forms
// "current" and "booklet".
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CURRENT_ACCOUNT", "CURRENT":
		return CurrentAccountType, nil
	case "BOOKLET_ACCOUNT", "BOOKLET":
		return BookletAccountType, nil
	default:
		return "", fmt.Errorf("%w: unknown account type %q", ErrBusinessRule, s)
	}
}

// Account is the capability shared by every account variant.
type Account interface {
	Identity() AccountIdentity
	Number() uuid.UUID
	Type() AccountType
	CurrentBalance() decimal.Decimal
	AvailableBalance() decimal.Decimal
	HasSufficientFunds(amount decimal.Decimal) bool
	IsActive() bool
	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
}

var (
	_ Account = (*CurrentAccount)(nil)
	_ Account = (*BookletAccount)(nil)
)
