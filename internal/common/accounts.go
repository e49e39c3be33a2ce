package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// AccountSeed describes an account to open during setup
type AccountSeed struct {
	Type             string `yaml:"type"`
	Number           string `yaml:"number"`
	InitialBalance   string `yaml:"initial_balance"`
	OverdraftAllowed bool   `yaml:"overdraft_allowed"`
	OverdraftLimit   string `yaml:"overdraft_limit"`
	DepositLimit     string `yaml:"deposit_limit"`
}

type AccountsConfig struct {
	Accounts []AccountSeed `yaml:"accounts"`
}

type parsedSeed struct {
	accountType      ledger.AccountType
	number           uuid.UUID
	initialBalance   decimal.Decimal
	overdraftAllowed bool
	overdraftLimit   decimal.Decimal
	depositLimit     decimal.Decimal
}

func LoadAccountSeeds(accountsFile string) ([]AccountSeed, error) {
	var accountsPath string
	if filepath.IsAbs(accountsFile) {
		accountsPath = accountsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		accountsPath = filepath.Join(wd, accountsFile)
	}

	data, err := os.ReadFile(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", accountsFile, err)
	}

	var config AccountsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", accountsFile, err)
	}

	for i, seed := range config.Accounts {
		if _, err := seed.parse(); err != nil {
			return nil, fmt.Errorf("account at index %d: %w", i, err)
		}
	}

	return config.Accounts, nil
}

func (s AccountSeed) parse() (*parsedSeed, error) {
	accountType, err := ledger.ParseAccountType(s.Type)
	if err != nil {
		return nil, err
	}
	if s.Number == "" {
		return nil, fmt.Errorf("missing number")
	}
	number, err := ledger.ParseAccountNumber(s.Number)
	if err != nil {
		return nil, err
	}

	p := &parsedSeed{accountType: accountType, number: number, overdraftAllowed: s.OverdraftAllowed}
	if p.initialBalance, err = optionalDecimal(s.InitialBalance); err != nil {
		return nil, fmt.Errorf("invalid initial_balance: %w", err)
	}
	if p.overdraftLimit, err = optionalLimit(s.OverdraftLimit); err != nil {
		return nil, fmt.Errorf("invalid overdraft_limit: %w", err)
	}
	if p.depositLimit, err = optionalLimit(s.DepositLimit); err != nil {
		return nil, fmt.Errorf("invalid deposit_limit: %w", err)
	}
	return p, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func optionalLimit(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return ledger.ParseLimit(s)
}

// SeedAccounts opens every seeded account that does not exist yet and
// returns how many were created. Existing accounts are left untouched.
func SeedAccounts(ctx context.Context, svc *api.LedgerService, seeds []AccountSeed) (int, error) {
	var created int
	for _, seed := range seeds {
		p, err := seed.parse()
		if err != nil {
			return created, fmt.Errorf("account %s: %w", seed.Number, err)
		}

		ok, err := seedAccount(ctx, svc, p)
		if err != nil {
			return created, fmt.Errorf("failed to seed account %s: %w", p.number, err)
		}
		if !ok {
			zap.L().Info("Account already exists, skipping",
				zap.String("account_number", p.number.String()),
				zap.String("account_type", string(p.accountType)))
			continue
		}
		created++
		zap.L().Info("Seeded account",
			zap.String("account_number", p.number.String()),
			zap.String("account_type", string(p.accountType)),
			zap.String("initial_balance", p.initialBalance.String()))
	}
	return created, nil
}

func seedAccount(ctx context.Context, svc *api.LedgerService, p *parsedSeed) (bool, error) {
	switch p.accountType {
	case ledger.BookletAccountType:
		if _, err := svc.Booklet.Get(ctx, p.number); err == nil {
			return false, nil
		} else if !errors.Is(err, ledger.ErrNotFound) {
			return false, err
		}
		_, err := svc.Booklet.Open(ctx, api.OpenBookletAccountRequest{
			Number:         p.number,
			InitialBalance: p.initialBalance,
			DepositLimit:   p.depositLimit,
		})
		return err == nil, err
	default:
		if _, err := svc.Current.Get(ctx, p.number); err == nil {
			return false, nil
		} else if !errors.Is(err, ledger.ErrNotFound) {
			return false, err
		}
		_, err := svc.Current.Open(ctx, api.OpenCurrentAccountRequest{
			Number:           p.number,
			InitialBalance:   p.initialBalance,
			OverdraftLimit:   p.overdraftLimit,
			OverdraftAllowed: p.overdraftAllowed,
		})
		return err == nil, err
	}
}
