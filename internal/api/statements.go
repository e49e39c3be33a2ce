package api

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatementService generates and lists monthly statements
type StatementService struct {
	current      store.CurrentAccountRepository
	booklet      store.BookletAccountRepository
	transactions store.TransactionRepository
	statements   store.StatementRepository
	generator    *ledger.StatementGenerator
}

func NewStatementService(current store.CurrentAccountRepository, booklet store.BookletAccountRepository,
	transactions store.TransactionRepository, statements store.StatementRepository) *StatementService {
	return &StatementService{
		current:      current,
		booklet:      booklet,
		transactions: transactions,
		statements:   statements,
		generator:    ledger.NewStatementGenerator(),
	}
}

// Generate builds and stores the statement for the 30 days ending at periodEnd
func (s *StatementService) Generate(ctx context.Context, number uuid.UUID, accountType ledger.AccountType, periodEnd time.Time) (*models.StatementView, error) {
	account, err := s.resolve(ctx, number, accountType)
	if err != nil {
		return nil, err
	}
	statement, err := s.generate(ctx, account, periodEnd)
	if err != nil {
		return nil, err
	}
	view := statementView(statement)
	return &view, nil
}

func (s *StatementService) List(ctx context.Context, number uuid.UUID) ([]models.StatementView, error) {
	statements, err := s.statements.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	views := make([]models.StatementView, 0, len(statements))
	for _, statement := range statements {
		views = append(views, statementView(statement))
	}
	return views, nil
}

// GenerateForActiveAccounts produces a statement for every active account,
// at most workers at a time. A failing account does not stop the others.
func (s *StatementService) GenerateForActiveAccounts(ctx context.Context, periodEnd time.Time, workers int) (int, error) {
	accounts, err := s.activeAccounts(ctx)
	if err != nil {
		return 0, err
	}

	var (
		generated atomic.Int64
		failures  = make([]error, len(accounts))
		g         errgroup.Group
	)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, account := range accounts {
		g.Go(func() error {
			if ctx.Err() != nil {
				failures[i] = ctx.Err()
				return nil
			}
			if _, err := s.generate(ctx, account, periodEnd); err != nil {
				zap.L().Error("Statement generation failed",
					zap.String("account_number", account.Number().String()),
					zap.String("account_type", account.Type().String()),
					zap.Error(err))
				failures[i] = fmt.Errorf("account %s: %w", account.Number(), err)
				return nil
			}
			generated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("Statement run completed",
		zap.Int("accounts", len(accounts)),
		zap.Int64("generated", generated.Load()),
		zap.Time("period_end", periodEnd))
	return int(generated.Load()), errors.Join(failures...)
}

func (s *StatementService) generate(ctx context.Context, account ledger.Account, periodEnd time.Time) (*ledger.MonthlyStatement, error) {
	transactions, err := s.transactions.GetByAccountID(ctx, account.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	statement := s.generator.GenerateMonthlyStatement(account, transactions, periodEnd)
	if !statement.Reconciles() {
		zap.L().Warn("Statement does not reconcile",
			zap.String("account_number", account.Number().String()),
			zap.String("opening_balance", statement.OpeningBalance.String()),
			zap.String("closing_balance", statement.ClosingBalance.String()))
	}

	if err := s.statements.Save(ctx, statement); err != nil {
		return nil, fmt.Errorf("failed to save statement: %w", err)
	}

	zap.L().Info("Statement generated",
		zap.String("statement_id", statement.ID.String()),
		zap.String("account_number", account.Number().String()),
		zap.Int("transactions", len(statement.Transactions)),
		zap.String("closing_balance", statement.ClosingBalance.String()))
	return statement, nil
}

func (s *StatementService) resolve(ctx context.Context, number uuid.UUID, accountType ledger.AccountType) (ledger.Account, error) {
	switch accountType {
	case ledger.CurrentAccountType:
		return s.current.GetByAccountNumber(ctx, number)
	case ledger.BookletAccountType:
		return s.booklet.GetByAccountNumber(ctx, number)
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", ledger.ErrBusinessRule, accountType)
	}
}

func (s *StatementService) activeAccounts(ctx context.Context) ([]ledger.Account, error) {
	current, err := s.current.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list current accounts: %w", err)
	}
	booklets, err := s.booklet.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list booklet accounts: %w", err)
	}

	accounts := make([]ledger.Account, 0, len(current)+len(booklets))
	for _, a := range current {
		accounts = append(accounts, a)
	}
	for _, a := range booklets {
		accounts = append(accounts, a)
	}
	return accounts, nil
}
