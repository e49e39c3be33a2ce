package api

import (
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func currentAccountView(a *ledger.CurrentAccount) *models.CurrentAccountView {
	return &models.CurrentAccountView{
		AccountNumber:    a.AccountNumber.String(),
		Balance:          a.Balance,
		AvailableBalance: a.AvailableBalance(),
		OverdraftAllowed: a.OverdraftAllowed,
		OverdraftLimit:   a.OverdraftLimit,
		OverdraftUsed:    a.OverdraftUsed(),
		InOverdraft:      a.InOverdraft(),
		Active:           a.Active,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func bookletAccountView(a *ledger.BookletAccount) *models.BookletAccountView {
	return &models.BookletAccountView{
		AccountNumber:            a.AccountNumber.String(),
		Balance:                  a.Balance,
		DepositLimit:             a.DepositLimit,
		RemainingDepositCapacity: a.RemainingDepositCapacity(),
		Active:                   a.Active,
		CreatedAt:                a.CreatedAt,
		UpdatedAt:                a.UpdatedAt,
	}
}

func statementView(s *ledger.MonthlyStatement) models.StatementView {
	lines := make([]models.TransactionView, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		lines = append(lines, models.TransactionView{
			Id:         tx.ID.String(),
			Type:       tx.Type.String(),
			Amount:     tx.Amount,
			OccurredAt: tx.OccurredAt,
		})
	}
	return models.StatementView{
		Id:               s.ID.String(),
		AccountNumber:    s.AccountNumber.String(),
		AccountType:      s.AccountType.String(),
		PeriodStart:      s.PeriodStart,
		PeriodEnd:        s.PeriodEnd,
		GeneratedAt:      s.GeneratedAt,
		OpeningBalance:   s.OpeningBalance,
		ClosingBalance:   s.ClosingBalance,
		TotalDeposits:    s.TotalDeposits(),
		TotalWithdrawals: s.TotalWithdrawals(),
		Reconciled:       s.Reconciles(),
		Transactions:     lines,
	}
}

func operationResult(account ledger.Account, op ledger.TransactionType, amount decimal.Decimal) *models.OperationResult {
	return &models.OperationResult{
		Success:          true,
		AccountNumber:    account.Number().String(),
		AccountType:      account.Type().String(),
		Operation:        op.String(),
		Amount:           amount,
		NewBalance:       account.CurrentBalance(),
		AvailableBalance: account.AvailableBalance(),
	}
}

func failedResult(number string, accountType ledger.AccountType, op ledger.TransactionType, amount decimal.Decimal, err error) *models.OperationResult {
	return &models.OperationResult{
		Success:       false,
		AccountNumber: number,
		AccountType:   accountType.String(),
		Operation:     op.String(),
		Amount:        amount,
		Error:         err.Error(),
	}
}
