package formance

import (
	"context"
	"fmt"
	"math/big"

	"bank-ledger-go/internal/ledger"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Balance returns the account's balance as tracked by Formance volumes.
func (s *Service) Balance(ctx context.Context, accountType ledger.AccountType, id ledger.AccountIdentity) (*big.Int, error) {
	address := accountAddress(accountType, id)
	vols, err := s.getAccountVolumes(ctx, address)
	if err != nil {
		return nil, err
	}
	return volumeBalance(vols, formanceAsset()), nil
}

// ReconcileBalance verifies that an account's stored balance matches the
// Formance volume balance of its address.
func (s *Service) ReconcileBalance(ctx context.Context, account ledger.Account) error {
	zap.L().Info("Reconciling balance against Formance",
		zap.String("account_number", account.Number().String()))

	raw, err := s.Balance(ctx, account.Type(), account.Identity())
	if err != nil {
		return fmt.Errorf("failed to read Formance balance: %w", err)
	}
	calculated := bigIntToDecimal(raw)

	current := account.CurrentBalance()
	if !current.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_number", account.Number().String()),
			zap.String("current_balance", current.String()),
			zap.String("formance_balance", calculated.String()),
			zap.String("difference", current.Sub(calculated).String()))
		return fmt.Errorf("balance mismatch: current=%s, formance=%s", current, calculated)
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account_number", account.Number().String()),
		zap.String("balance", current.String()))
	return nil
}

// getAccountVolumes fetches volumes for a single account via GetAccount.
func (s *Service) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}
