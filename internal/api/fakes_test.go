package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bank-ledger-go/internal/events"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryCurrentAccounts mimics the SQLite compare-and-swap semantics
type memoryCurrentAccounts struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]ledger.CurrentAccount
	conflicts int
}

func newMemoryCurrentAccounts() *memoryCurrentAccounts {
	return &memoryCurrentAccounts{accounts: make(map[uuid.UUID]ledger.CurrentAccount)}
}

func (m *memoryCurrentAccounts) GetByIdentity(_ context.Context, id ledger.AccountIdentity) (*ledger.CurrentAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: current account %s", ledger.ErrNotFound, id)
}

func (m *memoryCurrentAccounts) GetByAccountNumber(_ context.Context, number uuid.UUID) (*ledger.CurrentAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return nil, fmt.Errorf("%w: current account number %s", ledger.ErrNotFound, number)
	}
	return &a, nil
}

func (m *memoryCurrentAccounts) Save(_ context.Context, account *ledger.CurrentAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("current account update failed - %w", store.ErrConcurrentModification)
	}
	stored, ok := m.accounts[account.AccountNumber]
	switch {
	case account.Version == 0 && ok:
		return fmt.Errorf("%w: account number exists", ledger.ErrBusinessRule)
	case account.Version != 0 && !ok:
		return ledger.ErrNotFound
	case ok && stored.Version != account.Version:
		return store.ErrConcurrentModification
	}
	account.Version++
	m.accounts[account.AccountNumber] = *account
	return nil
}

func (m *memoryCurrentAccounts) Delete(_ context.Context, id ledger.AccountIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for number, a := range m.accounts {
		if a.ID == id {
			delete(m.accounts, number)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (m *memoryCurrentAccounts) UpdateOverdraftLimit(_ context.Context, number uuid.UUID, limit decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return ledger.ErrNotFound
	}
	a.OverdraftLimit = limit
	a.Version++
	m.accounts[number] = a
	return nil
}

func (m *memoryCurrentAccounts) List(_ context.Context, activeOnly bool) ([]*ledger.CurrentAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.CurrentAccount
	for _, a := range m.accounts {
		if activeOnly && !a.Active {
			continue
		}
		copied := a
		out = append(out, &copied)
	}
	return out, nil
}

type memoryBookletAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]ledger.BookletAccount
}

func newMemoryBookletAccounts() *memoryBookletAccounts {
	return &memoryBookletAccounts{accounts: make(map[uuid.UUID]ledger.BookletAccount)}
}

func (m *memoryBookletAccounts) GetByIdentity(_ context.Context, id ledger.AccountIdentity) (*ledger.BookletAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (m *memoryBookletAccounts) GetByAccountNumber(_ context.Context, number uuid.UUID) (*ledger.BookletAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return nil, fmt.Errorf("%w: booklet account number %s", ledger.ErrNotFound, number)
	}
	return &a, nil
}

func (m *memoryBookletAccounts) Save(_ context.Context, account *ledger.BookletAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[account.AccountNumber]
	if ok && stored.Version != account.Version {
		return store.ErrConcurrentModification
	}
	account.Version++
	m.accounts[account.AccountNumber] = *account
	return nil
}

func (m *memoryBookletAccounts) Delete(_ context.Context, id ledger.AccountIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for number, a := range m.accounts {
		if a.ID == id {
			delete(m.accounts, number)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (m *memoryBookletAccounts) List(_ context.Context, activeOnly bool) ([]*ledger.BookletAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.BookletAccount
	for _, a := range m.accounts {
		if activeOnly && !a.Active {
			continue
		}
		copied := a
		out = append(out, &copied)
	}
	return out, nil
}

type memoryTransactions struct {
	mu  sync.Mutex
	log []ledger.Transaction
}

func (m *memoryTransactions) GetByAccountID(_ context.Context, id ledger.AccountIdentity) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Transaction
	for _, tx := range m.log {
		if tx.AccountID == id {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (m *memoryTransactions) GetByAccountIDAndDateRange(ctx context.Context, id ledger.AccountIdentity, start, end time.Time) ([]ledger.Transaction, error) {
	all, _ := m.GetByAccountID(ctx, id)
	var out []ledger.Transaction
	for _, tx := range all {
		if !tx.OccurredAt.Before(start) && !tx.OccurredAt.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memoryTransactions) Save(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.log {
		if existing.ID == tx.ID {
			return store.ErrDuplicateTransaction
		}
	}
	m.log = append(m.log, tx)
	return nil
}

type memoryStatements struct {
	mu         sync.Mutex
	statements []*ledger.MonthlyStatement
}

func (m *memoryStatements) Save(_ context.Context, s *ledger.MonthlyStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, s)
	return nil
}

func (m *memoryStatements) GetByAccountNumber(_ context.Context, number uuid.UUID) ([]*ledger.MonthlyStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.MonthlyStatement
	for i := len(m.statements) - 1; i >= 0; i-- {
		if m.statements[i].AccountNumber == number {
			out = append(out, m.statements[i])
		}
	}
	return out, nil
}

var _ events.Listener = (*capturingPublisher)(nil)

// capturingPublisher records dispatched events
type capturingPublisher struct {
	mu     sync.Mutex
	events []ledger.TransactionEvent
	err    error
}

func (p *capturingPublisher) Handle(_ context.Context, event ledger.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}
