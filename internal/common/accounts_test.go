package common

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const seedFile = `accounts:
  - type: current
    number: 3f0e8a52-7c1d-4a8e-9a63-2b8c4f1d7e01
    initial_balance: "1000.00"
    overdraft_allowed: true
    overdraft_limit: "500.00"
  - type: booklet
    number: 9b2d6c14-5e7f-4a3b-8c9d-0e1f2a3b4c5d
    initial_balance: "250.00"
`

func writeSeeds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	return &models.Config{
		Database: models.DatabaseConfig{
			Path:         filepath.Join(t.TempDir(), "ledger.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			PingTimeout:  5 * time.Second,
		},
		Ledger: models.LedgerConfig{
			Backend:           models.BackendSQLite,
			OptimisticRetries: 3,
		},
		Events: models.EventsConfig{Mode: models.EventsInline},
	}
}

func TestLoadAccountSeeds(t *testing.T) {
	seeds, err := LoadAccountSeeds(writeSeeds(t, seedFile))
	if err != nil {
		t.Fatalf("LoadAccountSeeds failed: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("Expected 2 seeds, got %d", len(seeds))
	}
	if seeds[0].Type != "current" || !seeds[0].OverdraftAllowed {
		t.Errorf("Expected overdraft-enabled current account, got %+v", seeds[0])
	}
	if seeds[1].DepositLimit != "" {
		t.Errorf("Expected empty deposit limit, got %q", seeds[1].DepositLimit)
	}
}

func TestLoadAccountSeedsRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown type", "accounts:\n  - type: savings\n    number: 3f0e8a52-7c1d-4a8e-9a63-2b8c4f1d7e01\n", "index 0"},
		{"missing number", "accounts:\n  - type: current\n", "missing number"},
		{"negative limit", "accounts:\n  - type: booklet\n    number: 3f0e8a52-7c1d-4a8e-9a63-2b8c4f1d7e01\n    deposit_limit: \"-1\"\n", "deposit_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAccountSeeds(writeSeeds(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadAccountSeedsMissingFile(t *testing.T) {
	if _, err := LoadAccountSeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSeedAccountsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	services, err := InitializeServices(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()

	seeds, err := LoadAccountSeeds(writeSeeds(t, seedFile))
	if err != nil {
		t.Fatalf("LoadAccountSeeds failed: %v", err)
	}

	created, err := SeedAccounts(ctx, services.Ledger, seeds)
	if err != nil {
		t.Fatalf("SeedAccounts failed: %v", err)
	}
	if created != 2 {
		t.Errorf("Expected 2 accounts created, got %d", created)
	}

	created, err = SeedAccounts(ctx, services.Ledger, seeds)
	if err != nil {
		t.Fatalf("Second SeedAccounts failed: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected no accounts created on rerun, got %d", created)
	}

	current, err := services.Ledger.Current.Get(ctx, uuid.MustParse("3f0e8a52-7c1d-4a8e-9a63-2b8c4f1d7e01"))
	if err != nil {
		t.Fatalf("Get current failed: %v", err)
	}
	if !current.AvailableBalance.Equal(decimal.RequireFromString("1500")) {
		t.Errorf("Expected available balance 1500, got %s", current.AvailableBalance)
	}

	booklet, err := services.Ledger.Booklet.Get(ctx, uuid.MustParse("9b2d6c14-5e7f-4a3b-8c9d-0e1f2a3b4c5d"))
	if err != nil {
		t.Fatalf("Get booklet failed: %v", err)
	}
	if !booklet.DepositLimit.Equal(ledger.DefaultDepositLimit) {
		t.Errorf("Expected default deposit limit, got %s", booklet.DepositLimit)
	}
}

func TestInitializeServicesRecordsOpeningTransactions(t *testing.T) {
	ctx := context.Background()
	services, err := InitializeServices(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()

	view, err := services.Ledger.Booklet.Open(ctx, api.OpenBookletAccountRequest{InitialBalance: decimal.RequireFromString("40")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := services.Ledger.Booklet.Deposit(ctx, uuid.MustParse(view.AccountNumber), decimal.RequireFromString("10")); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	accounts, err := services.DbService.BookletAccounts().List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts))
	}
	if err := services.Reconciler.ReconcileBalance(ctx, accounts[0]); err != nil {
		t.Errorf("Expected recorded log to reconcile, got %v", err)
	}

	if _, err := services.NewRecorderConsumer(); err == nil {
		t.Error("Expected recorder consumer to require amqp events mode")
	}
}
