package formance

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $account_kind
  account $account_id
  string $transaction_id
  string $account_type
  string $occurred_at
  string $channel
}

send [$asset $amount] (
  source = @world
  destination = @accounts:$account_kind:$account_id
)

set_tx_meta("event_type", "deposit")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("account_type", $account_type)
set_tx_meta("occurred_at", $occurred_at)
set_tx_meta("channel", $channel)
`

const numscriptWithdrawal = `vars {
  asset $asset
  number $amount
  account $account_kind
  account $account_id
  string $transaction_id
  string $account_type
  string $occurred_at
  string $channel
}

send [$asset $amount] (
  source = @accounts:$account_kind:$account_id allowing unbounded overdraft
  destination = @world
)

set_tx_meta("event_type", "withdrawal")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("account_type", $account_type)
set_tx_meta("occurred_at", $occurred_at)
set_tx_meta("channel", $channel)
`

const listPageSize = int64(100)

// Save posts the transaction with its id as the Formance reference, so a
// replay is rejected as a conflict.
func (s *Service) Save(ctx context.Context, tx ledger.Transaction) error {
	amount, err := toMinorUnits(tx.Amount)
	if err != nil {
		return err
	}

	script := numscriptDeposit
	if tx.Type == ledger.Withdrawal {
		script = numscriptWithdrawal
	}

	channel := "cli"
	if oc := models.GetOperationContext(ctx); oc != nil && oc.Channel != "" {
		channel = oc.Channel
	}

	vars := map[string]string{
		"asset":          formanceAsset(),
		"amount":         amount,
		"account_kind":   accountKind(tx.AccountType),
		"account_id":     tx.AccountID.String(),
		"transaction_id": tx.ID.String(),
		"account_type":   tx.AccountType.String(),
		"occurred_at":    tx.OccurredAt.UTC().Format(time.RFC3339Nano),
		"channel":        channel,
	}

	occurredAt := tx.OccurredAt.UTC()
	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(tx.ID.String()),
			Timestamp: &occurredAt,
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars:  vars,
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return fmt.Errorf("%w: transaction %s already exists", store.ErrDuplicateTransaction, tx.ID)
		}
		return fmt.Errorf("error posting %s transaction: %w", strings.ToLower(tx.Type.String()), err)
	}

	zap.L().Info("Transaction posted to Formance",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("address", accountAddress(tx.AccountType, tx.AccountID)),
		zap.String("type", tx.Type.String()),
		zap.String("amount", tx.Amount.String()))
	return nil
}

// GetByAccountID returns every transaction touching the account, oldest first.
func (s *Service) GetByAccountID(ctx context.Context, accountID ledger.AccountIdentity) ([]ledger.Transaction, error) {
	return s.listAccountTransactions(ctx, accountID, func(time.Time) bool { return true })
}

// GetByAccountIDAndDateRange filters on OccurredAt, inclusive on both ends.
func (s *Service) GetByAccountIDAndDateRange(ctx context.Context, accountID ledger.AccountIdentity, start, end time.Time) ([]ledger.Transaction, error) {
	return s.listAccountTransactions(ctx, accountID, func(t time.Time) bool {
		return !t.Before(start) && !t.After(end)
	})
}

func (s *Service) listAccountTransactions(ctx context.Context, accountID ledger.AccountIdentity, keep func(time.Time) bool) ([]ledger.Transaction, error) {
	// The account kind is not known here, so match the id under any kind.
	suffix := ":" + accountID.String()
	pageSize := listPageSize

	var (
		result []ledger.Transaction
		cursor *string
	)
	for {
		resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
			Ledger:   s.ledger,
			PageSize: &pageSize,
			Cursor:   cursor,
			RequestBody: map[string]any{
				"$or": []any{
					map[string]any{"$match": map[string]any{"source": accountsPrefix + "::" + accountID.String()}},
					map[string]any{"$match": map[string]any{"destination": accountsPrefix + "::" + accountID.String()}},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		page := resp.V2TransactionsCursorResponse.Cursor
		for _, raw := range page.Data {
			tx, ok := toLedgerTransaction(raw, suffix)
			if !ok || !keep(tx.OccurredAt) {
				continue
			}
			result = append(result, tx)
		}

		if !page.HasMore || page.Next == nil {
			break
		}
		cursor = page.Next
	}

	slices.SortStableFunc(result, func(a, b ledger.Transaction) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return result, nil
}

// toLedgerTransaction rebuilds a log entry from a Formance transaction. The
// direction of the posting against the account decides deposit vs withdrawal.
func toLedgerTransaction(raw shared.V2Transaction, addressSuffix string) (ledger.Transaction, bool) {
	for _, p := range raw.Postings {
		if assetSymbol(p.Asset) != currency {
			continue
		}

		var (
			address string
			txType  ledger.TransactionType
		)
		switch {
		case strings.HasPrefix(p.Destination, accountsPrefix+":") && strings.HasSuffix(p.Destination, addressSuffix):
			address, txType = p.Destination, ledger.Deposit
		case strings.HasPrefix(p.Source, accountsPrefix+":") && strings.HasSuffix(p.Source, addressSuffix):
			address, txType = p.Source, ledger.Withdrawal
		default:
			continue
		}

		parts := strings.Split(address, ":")
		if len(parts) != 3 {
			continue
		}
		identity, err := ledger.ParseAccountIdentity(parts[2])
		if err != nil {
			continue
		}

		id, err := uuid.Parse(raw.Metadata["transaction_id"])
		if err != nil && raw.Reference != nil {
			id, err = uuid.Parse(*raw.Reference)
		}
		if err != nil {
			zap.L().Warn("Skipping Formance transaction without a transaction id", zap.Any("formance_id", raw.ID))
			return ledger.Transaction{}, false
		}

		occurredAt := raw.Timestamp.UTC()
		if ts, err := time.Parse(time.RFC3339Nano, raw.Metadata["occurred_at"]); err == nil {
			occurredAt = ts.UTC()
		}

		accountType := ledger.CurrentAccountType
		if parts[1] == accountKind(ledger.BookletAccountType) {
			accountType = ledger.BookletAccountType
		}

		return ledger.Transaction{
			ID:          id,
			AccountID:   identity,
			AccountType: accountType,
			Type:        txType,
			Amount:      bigIntToDecimal(p.Amount),
			OccurredAt:  occurredAt,
		}, true
	}
	return ledger.Transaction{}, false
}

// assetSymbol extracts the symbol from a Formance asset like "EUR/2".
func assetSymbol(fAsset string) string {
	for i, c := range fAsset {
		if c == '/' {
			return fAsset[:i]
		}
	}
	return fAsset
}
