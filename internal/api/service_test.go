package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-ledger-go/internal/events"
	"bank-ledger-go/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fixture struct {
	service      *LedgerService
	current      *memoryCurrentAccounts
	booklet      *memoryBookletAccounts
	transactions *memoryTransactions
	statements   *memoryStatements
	publisher    *capturingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		current:      newMemoryCurrentAccounts(),
		booklet:      newMemoryBookletAccounts(),
		transactions: &memoryTransactions{},
		statements:   &memoryStatements{},
		publisher:    &capturingPublisher{},
	}
	dispatcher := events.NewDispatcher(events.NewRecorder(f.transactions), f.publisher)
	f.service = NewLedgerService(Config{
		CurrentAccounts: f.current,
		BookletAccounts: f.booklet,
		Transactions:    f.transactions,
		Statements:      f.statements,
		Events:          dispatcher,
		Retries:         3,
	})
	return f
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) openCurrent(t *testing.T, balance, limit string, overdraft bool) uuid.UUID {
	t.Helper()
	view, err := f.service.Current.Open(context.Background(), OpenCurrentAccountRequest{
		InitialBalance:   d(balance),
		OverdraftLimit:   d(limit),
		OverdraftAllowed: overdraft,
	})
	if err != nil {
		t.Fatalf("Open current account failed: %v", err)
	}
	return uuid.MustParse(view.AccountNumber)
}

func (f *fixture) openBooklet(t *testing.T, balance, limit string) uuid.UUID {
	t.Helper()
	view, err := f.service.Booklet.Open(context.Background(), OpenBookletAccountRequest{
		InitialBalance: d(balance),
		DepositLimit:   d(limit),
	})
	if err != nil {
		t.Fatalf("Open booklet failed: %v", err)
	}
	return uuid.MustParse(view.AccountNumber)
}

func TestCurrentAccountOverdraftWithdrawals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "1000.00", "500.00", true)

	result, err := f.service.Current.Withdraw(ctx, number, d("1400.00"))
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !result.Success || !result.NewBalance.Equal(d("-400.00")) {
		t.Errorf("Expected success with balance -400.00, got %v %s", result.Success, result.NewBalance)
	}
	if !result.AvailableBalance.Equal(d("100.00")) {
		t.Errorf("Expected available balance 100.00, got %s", result.AvailableBalance)
	}

	result, err = f.service.Current.Withdraw(ctx, number, d("2000.00"))
	if !errors.Is(err, ledger.ErrOverdraftLimitExceeded) {
		t.Fatalf("Expected ErrOverdraftLimitExceeded, got %v", err)
	}
	if result == nil || result.Success || result.Error == "" {
		t.Errorf("Expected a failed result carrying the error, got %+v", result)
	}

	view, err := f.service.Current.Get(ctx, number)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !view.Balance.Equal(d("-400.00")) || !view.InOverdraft || !view.OverdraftUsed.Equal(d("400.00")) {
		t.Errorf("Unexpected account state after rejection: %+v", view)
	}
}

func TestCurrentAccountWithoutOverdraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "100", "0", false)

	if _, err := f.service.Current.Withdraw(ctx, number, d("100.01")); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := f.service.Current.Deposit(ctx, number, d("0")); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.service.Current.Deposit(ctx, uuid.New(), d("1")); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	available, err := f.service.Current.AvailableBalance(ctx, number)
	if err != nil || !available.Equal(d("100")) {
		t.Errorf("Expected available balance 100, got %s, %v", available, err)
	}
}

func TestInactiveAccountRejectsOperations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "50", "0", false)

	if _, err := f.service.Current.Deactivate(ctx, number); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := f.service.Current.Deposit(ctx, number, d("10")); !errors.Is(err, ledger.ErrBusinessRule) {
		t.Errorf("Expected ErrBusinessRule, got %v", err)
	}

	view, err := f.service.Current.Activate(ctx, number)
	if err != nil || !view.Active {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, err := f.service.Current.Deposit(ctx, number, d("10")); err != nil {
		t.Errorf("Expected deposit after activation, got %v", err)
	}
}

func TestOperationRetriesOnConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "0", "0", false)

	f.current.conflicts = 2
	result, err := f.service.Current.Deposit(ctx, number, d("25"))
	if err != nil {
		t.Fatalf("Expected deposit to succeed after retries, got %v", err)
	}
	if !result.NewBalance.Equal(d("25")) {
		t.Errorf("Expected balance 25, got %s", result.NewBalance)
	}

	f.current.conflicts = 4
	if _, err := f.service.Current.Deposit(ctx, number, d("1")); err == nil {
		t.Fatal("Expected deposit to fail once retries are exhausted")
	}
	view, _ := f.service.Current.Get(ctx, number)
	if !view.Balance.Equal(d("25")) {
		t.Errorf("Expected balance to stay 25, got %s", view.Balance)
	}
}

func TestSetOverdraftLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "0", "100", true)

	if _, err := f.service.Current.Withdraw(ctx, number, d("80")); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	// Lowering below current usage is allowed.
	view, err := f.service.Current.SetOverdraftLimit(ctx, number, d("50"))
	if err != nil {
		t.Fatalf("SetOverdraftLimit failed: %v", err)
	}
	if !view.OverdraftLimit.Equal(d("50")) {
		t.Errorf("Expected limit 50, got %s", view.OverdraftLimit)
	}
	if _, err := f.service.Current.SetOverdraftLimit(ctx, number, d("-1")); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.service.Current.Withdraw(ctx, number, d("1")); !errors.Is(err, ledger.ErrOverdraftLimitExceeded) {
		t.Errorf("Expected ErrOverdraftLimitExceeded below the lowered limit, got %v", err)
	}
}

func TestBookletDepositLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openBooklet(t, "1000.00", "5000.00")

	result, err := f.service.Booklet.Deposit(ctx, number, d("4500.00"))
	if !errors.Is(err, ledger.ErrDepositLimitExceeded) {
		t.Fatalf("Expected ErrDepositLimitExceeded, got %v", err)
	}
	if result.Success {
		t.Error("Expected failed result")
	}

	if _, err := f.service.Booklet.Deposit(ctx, number, d("4000.00")); err != nil {
		t.Fatalf("Deposit up to the limit failed: %v", err)
	}
	capacity, err := f.service.Booklet.RemainingDepositCapacity(ctx, number)
	if err != nil || !capacity.IsZero() {
		t.Errorf("Expected zero capacity, got %s, %v", capacity, err)
	}

	if _, err := f.service.Booklet.Withdraw(ctx, number, d("5000.01")); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := f.service.Booklet.UpdateDepositLimit(ctx, number, d("4999")); !errors.Is(err, ledger.ErrBusinessRule) {
		t.Errorf("Expected ErrBusinessRule, got %v", err)
	}
	view, err := f.service.Booklet.UpdateDepositLimit(ctx, number, d("6000"))
	if err != nil {
		t.Fatalf("UpdateDepositLimit failed: %v", err)
	}
	if !view.RemainingDepositCapacity.Equal(d("1000")) {
		t.Errorf("Expected capacity 1000, got %s", view.RemainingDepositCapacity)
	}
}

func TestBookletDefaultsAndStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openBooklet(t, "0", "0")

	view, err := f.service.Booklet.Get(ctx, number)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !view.DepositLimit.Equal(ledger.DefaultDepositLimit) {
		t.Errorf("Expected default limit, got %s", view.DepositLimit)
	}

	if _, err := f.service.Booklet.Deactivate(ctx, number); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := f.service.Booklet.Withdraw(ctx, number, d("1")); !errors.Is(err, ledger.ErrBusinessRule) {
		t.Errorf("Expected ErrBusinessRule, got %v", err)
	}
	active, _ := f.service.Booklet.List(ctx, true)
	if len(active) != 0 {
		t.Errorf("Expected no active booklets, got %d", len(active))
	}
	all, _ := f.service.Booklet.List(ctx, false)
	if len(all) != 1 {
		t.Errorf("Expected 1 booklet, got %d", len(all))
	}
}

func TestEventsFollowSuccessfulOperations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "200", "0", false)

	if _, err := f.service.Current.Withdraw(ctx, number, d("50")); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	_, _ = f.service.Current.Withdraw(ctx, number, d("500"))

	if len(f.publisher.events) != 2 {
		t.Fatalf("Expected opening and withdrawal events, got %d", len(f.publisher.events))
	}
	if f.publisher.events[0].OperationType != ledger.Deposit || !f.publisher.events[0].Amount.Equal(d("200")) {
		t.Errorf("Expected opening deposit of 200, got %s %s", f.publisher.events[0].OperationType, f.publisher.events[0].Amount)
	}
	if f.publisher.events[1].OperationType != ledger.Withdrawal {
		t.Errorf("Expected withdrawal event, got %s", f.publisher.events[1].OperationType)
	}
	if len(f.transactions.log) != 2 {
		t.Errorf("Expected 2 recorded transactions, got %d", len(f.transactions.log))
	}
}

func TestDispatchFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "0", "0", false)
	f.publisher.err = errors.New("broker unavailable")

	result, err := f.service.Current.Deposit(ctx, number, d("10"))
	if err != nil || !result.Success {
		t.Fatalf("Expected deposit to succeed despite dispatch failure, got %v", err)
	}
	view, _ := f.service.Current.Get(ctx, number)
	if !view.Balance.Equal(d("10")) {
		t.Errorf("Expected balance 10, got %s", view.Balance)
	}
}

func TestCloseAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "10", "0", false)

	if err := f.service.Current.Close(ctx, number); !errors.Is(err, ledger.ErrBusinessRule) {
		t.Errorf("Expected ErrBusinessRule for non-zero balance, got %v", err)
	}
	if _, err := f.service.Current.Withdraw(ctx, number, d("10")); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if err := f.service.Current.Close(ctx, number); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := f.service.Current.Get(ctx, number); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after close, got %v", err)
	}

	booklet := f.openBooklet(t, "0", "0")
	if err := f.service.Booklet.Close(ctx, booklet); err != nil {
		t.Errorf("Close booklet failed: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	if err := newFixture().service.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy service, got %v", err)
	}
}

func TestWithRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	failure := errors.New("boom")
	err := withRetry(context.Background(), 5, func() error {
		calls++
		return failure
	})
	if !errors.Is(err, failure) || calls != 1 {
		t.Errorf("Expected a single call returning boom, got %d calls, %v", calls, err)
	}
}

func TestStatementGenerationFromRecordedEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openCurrent(t, "0", "0", false)

	if _, err := f.service.Current.Deposit(ctx, number, d("1000.00")); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	view, err := f.service.Statements.Generate(ctx, number, ledger.CurrentAccountType, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !view.OpeningBalance.Equal(d("0.00")) || !view.ClosingBalance.Equal(d("1000.00")) {
		t.Errorf("Expected 0.00 -> 1000.00, got %s -> %s", view.OpeningBalance, view.ClosingBalance)
	}
	if len(view.Transactions) != 1 || view.Transactions[0].Type != "DEPOSIT" {
		t.Errorf("Expected a single deposit line, got %+v", view.Transactions)
	}
	if !view.Reconciled {
		t.Error("Expected statement to reconcile")
	}

	listed, err := f.service.Statements.List(ctx, number)
	if err != nil || len(listed) != 1 || listed[0].Id != view.Id {
		t.Errorf("Expected the generated statement to be listed, got %d, %v", len(listed), err)
	}

	if _, err := f.service.Statements.Generate(ctx, number, ledger.BookletAccountType, time.Now()); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for the wrong account type, got %v", err)
	}
	if _, err := f.service.Statements.Generate(ctx, number, "SAVINGS", time.Now()); !errors.Is(err, ledger.ErrBusinessRule) {
		t.Errorf("Expected ErrBusinessRule for an unknown type, got %v", err)
	}
}

func TestOpeningBalanceIsReconciled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openBooklet(t, "750.00", "0")
	if _, err := f.service.Booklet.Withdraw(ctx, number, d("250.00")); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	view, err := f.service.Statements.Generate(ctx, number, ledger.BookletAccountType, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !view.OpeningBalance.IsZero() || !view.ClosingBalance.Equal(d("500.00")) {
		t.Errorf("Expected 0 -> 500.00, got %s -> %s", view.OpeningBalance, view.ClosingBalance)
	}
	if !view.TotalDeposits.Equal(d("750.00")) || !view.TotalWithdrawals.Equal(d("250.00")) {
		t.Errorf("Unexpected totals %s / %s", view.TotalDeposits, view.TotalWithdrawals)
	}
	if !view.Reconciled {
		t.Error("Expected statement to reconcile")
	}
}

func TestGenerateForActiveAccounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.openCurrent(t, "10", "0", false)
	f.openBooklet(t, "20", "0")
	inactive := f.openCurrent(t, "30", "0", false)
	if _, err := f.service.Current.Deactivate(ctx, inactive); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	generated, err := f.service.Statements.GenerateForActiveAccounts(ctx, time.Now().UTC(), 2)
	if err != nil {
		t.Fatalf("GenerateForActiveAccounts failed: %v", err)
	}
	if generated != 2 {
		t.Errorf("Expected 2 statements, got %d", generated)
	}
	if len(f.statements.statements) != 2 {
		t.Errorf("Expected 2 stored statements, got %d", len(f.statements.statements))
	}
}

func TestOpenBookletAccountRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := uuid.MustParse("9b2d6c14-5e7f-4a3b-8c9d-0e1f2a3b4c5d")

	view, err := f.service.Booklet.Open(ctx, OpenBookletAccountRequest{
		Number:         number,
		InitialBalance: d("100"),
		DepositLimit:   d("300"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if view.AccountNumber != number.String() {
		t.Errorf("Expected account number %s, got %s", number, view.AccountNumber)
	}
	if !view.DepositLimit.Equal(d("300")) || !view.RemainingDepositCapacity.Equal(d("200")) {
		t.Errorf("Expected limit 300 with capacity 200, got %s / %s", view.DepositLimit, view.RemainingDepositCapacity)
	}

	if _, err := f.service.Booklet.Open(ctx, OpenBookletAccountRequest{InitialBalance: d("400"), DepositLimit: d("300")}); !errors.Is(err, ledger.ErrDepositLimitExceeded) {
		t.Errorf("Expected ErrDepositLimitExceeded, got %v", err)
	}
}

func TestPublisherReceivesEventsThroughDispatcher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	number := f.openBooklet(t, "0", "0")

	if _, err := f.service.Booklet.Deposit(ctx, number, d("5")); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if len(f.publisher.events) != 1 || len(f.transactions.log) != 1 {
		t.Fatalf("Expected one published and one recorded event, got %d and %d", len(f.publisher.events), len(f.transactions.log))
	}
	if f.publisher.events[0].ID != f.transactions.log[0].ID {
		t.Errorf("Expected recorded transaction id %s, got %s", f.publisher.events[0].ID, f.transactions.log[0].ID)
	}
}
