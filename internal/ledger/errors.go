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

import "errors"

// Sentinel errors for ledger operations
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrOverdraftLimitExceeded = errors.New("overdraft limit exceeded")
	ErrDepositLimitExceeded   = errors.New("deposit limit exceeded")
	ErrBusinessRule           = errors.New("business rule violation")
)

var businessErrors = []error{
	ErrInvalidAmount,
	ErrNotFound,
	ErrInsufficientFunds,
	ErrOverdraftLimitExceeded,
	ErrDepositLimitExceeded,
	ErrBusinessRule,
}

// IsBusinessError reports whether err is a caller-facing ledger failure
// (bad input or a violated rule) as opposed to an infrastructure error.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
