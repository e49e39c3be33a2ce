package formance

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.TransactionRepository.
var _ store.TransactionRepository = (*Service)(nil)

const (
	currency       = "EUR"
	precision      = 2
	defaultLedger  = "bank-ledger"
	accountsPrefix = "accounts"
)

// Service keeps the transaction log in a Formance Stack ledger. Each
// transaction moves money between @world and the account's address.
type Service struct {
	client *v3.Formance
	ledger string
}

// NewService connects to the stack and creates the ledger if it doesn't already exist.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = defaultLedger
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: cfg.LedgerName}

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance service initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

// ensureLedger creates the ledger if it does not already exist.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "bank-ledger",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close is a no-op for the Formance backend (HTTP client needs no teardown).
func (s *Service) Close() {}

// ---------- helpers ----------

// accountKind is the address segment for an account type, e.g. "current".
func accountKind(t ledger.AccountType) string {
	switch t {
	case ledger.BookletAccountType:
		return "booklet"
	default:
		return "current"
	}
}

// accountAddress returns the ledger address, e.g. "accounts:current:<id>".
func accountAddress(t ledger.AccountType, id ledger.AccountIdentity) string {
	return fmt.Sprintf("%s:%s:%s", accountsPrefix, accountKind(t), id)
}

// formanceAsset returns the Formance UMN notation, "EUR/2".
func formanceAsset() string {
	return fmt.Sprintf("%s/%d", currency, precision)
}

// toMinorUnits converts an amount to cents. Sub-cent amounts cannot be posted.
func toMinorUnits(amount decimal.Decimal) (string, error) {
	shifted := amount.Shift(precision)
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("%w: %s has more than %d decimal places", ledger.ErrInvalidAmount, amount, precision)
	}
	return shifted.BigInt().String(), nil
}

// bigIntToDecimal converts a *big.Int in cents to a decimal amount.
func bigIntToDecimal(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -precision)
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func strPtr(s string) *string { return &s }
