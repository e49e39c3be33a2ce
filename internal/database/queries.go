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

const (
	schema = `
	-- Current (bank) accounts; version drives optimistic locking
	CREATE TABLE IF NOT EXISTS current_accounts (
		id TEXT PRIMARY KEY,
		account_number TEXT NOT NULL UNIQUE,
		balance TEXT NOT NULL DEFAULT '0',
		overdraft_limit TEXT NOT NULL DEFAULT '0',
		overdraft_allowed BOOLEAN NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_current_accounts_active ON current_accounts(active);

	-- Booklet (savings) accounts
	CREATE TABLE IF NOT EXISTS booklet_accounts (
		id TEXT PRIMARY KEY,
		account_number TEXT NOT NULL UNIQUE,
		balance TEXT NOT NULL DEFAULT '0',
		deposit_limit TEXT NOT NULL DEFAULT '22950.00',
		active BOOLEAN NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_booklet_accounts_active ON booklet_accounts(active);

	-- Transaction log (append-only); occurred_at is unix nanoseconds
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		occurred_at INTEGER NOT NULL,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account_occurred ON transactions(account_id, occurred_at);

	-- Generated statements
	CREATE TABLE IF NOT EXISTS monthly_statements (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_number TEXT NOT NULL,
		period_start INTEGER NOT NULL,
		period_end INTEGER NOT NULL,
		generated_at INTEGER NOT NULL,
		opening_balance TEXT NOT NULL,
		closing_balance TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_statements_account_number ON monthly_statements(account_number, generated_at);

	-- Snapshot of the transactions listed on each statement
	CREATE TABLE IF NOT EXISTS statement_transactions (
		statement_id TEXT NOT NULL REFERENCES monthly_statements(id) ON DELETE CASCADE,
		transaction_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		occurred_at INTEGER NOT NULL,
		PRIMARY KEY (statement_id, transaction_id)
	);
	`

	// Current account queries
	currentAccountColumns = `id, account_number, balance, overdraft_limit, overdraft_allowed, active, version, created_at, updated_at`

	queryGetCurrentAccountById = `
		SELECT ` + currentAccountColumns + `
		FROM current_accounts
		WHERE id = ?`

	queryGetCurrentAccountByNumber = `
		SELECT ` + currentAccountColumns + `
		FROM current_accounts
		WHERE account_number = ?`

	queryListCurrentAccounts = `
		SELECT ` + currentAccountColumns + `
		FROM current_accounts
		WHERE (? = 0 OR active = 1)
		ORDER BY created_at, account_number`

	queryInsertCurrentAccount = `
		INSERT INTO current_accounts (id, account_number, balance, overdraft_limit, overdraft_allowed, active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`

	queryUpdateCurrentAccount = `
		UPDATE current_accounts
		SET balance = ?, overdraft_limit = ?, overdraft_allowed = ?, active = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	queryUpdateOverdraftLimit = `
		UPDATE current_accounts
		SET overdraft_limit = ?, updated_at = ?, version = version + 1
		WHERE account_number = ?`

	queryDeleteCurrentAccount = `DELETE FROM current_accounts WHERE id = ?`

	queryCurrentAccountExists = `SELECT 1 FROM current_accounts WHERE id = ?`

	// Booklet account queries
	bookletAccountColumns = `id, account_number, balance, deposit_limit, active, version, created_at, updated_at`

	queryGetBookletAccountById = `
		SELECT ` + bookletAccountColumns + `
		FROM booklet_accounts
		WHERE id = ?`

	queryGetBookletAccountByNumber = `
		SELECT ` + bookletAccountColumns + `
		FROM booklet_accounts
		WHERE account_number = ?`

	queryListBookletAccounts = `
		SELECT ` + bookletAccountColumns + `
		FROM booklet_accounts
		WHERE (? = 0 OR active = 1)
		ORDER BY created_at, account_number`

	queryInsertBookletAccount = `
		INSERT INTO booklet_accounts (id, account_number, balance, deposit_limit, active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`

	queryUpdateBookletAccount = `
		UPDATE booklet_accounts
		SET balance = ?, deposit_limit = ?, active = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	queryDeleteBookletAccount = `DELETE FROM booklet_accounts WHERE id = ?`

	queryBookletAccountExists = `SELECT 1 FROM booklet_accounts WHERE id = ?`

	// Transaction queries
	transactionColumns = `id, account_id, account_type, transaction_type, amount, occurred_at`

	queryCheckDuplicateTransaction = `SELECT id FROM transactions WHERE id = ?`

	queryInsertTransaction = `
		INSERT INTO transactions (id, account_id, account_type, transaction_type, amount, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetTransactionsByAccount = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ?
		ORDER BY occurred_at ASC, recorded_at ASC`

	queryGetTransactionsByAccountAndRange = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC, recorded_at ASC`

	queryGetTransactionAmounts = `
		SELECT transaction_type, amount
		FROM transactions
		WHERE account_id = ?`

	// Statement queries
	queryInsertStatement = `
		INSERT INTO monthly_statements (id, account_id, account_type, account_number, period_start, period_end, generated_at, opening_balance, closing_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertStatementTransaction = `
		INSERT INTO statement_transactions (statement_id, transaction_id, position, transaction_type, amount, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetStatementsByAccountNumber = `
		SELECT id, account_id, account_type, account_number, period_start, period_end, generated_at, opening_balance, closing_balance
		FROM monthly_statements
		WHERE account_number = ?
		ORDER BY generated_at DESC`

	queryGetStatementTransactions = `
		SELECT transaction_id, transaction_type, amount, occurred_at
		FROM statement_transactions
		WHERE statement_id = ?
		ORDER BY position ASC`
)
