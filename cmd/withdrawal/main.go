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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	accountType ledger.AccountType
	number      uuid.UUID
	amount      decimal.Decimal
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	typeFlag := flag.String("type", "current", "Account type: current or booklet")
	accountFlag := flag.String("account", "", "Account number (required)")
	amountFlag := flag.String("amount", "", "Amount to withdraw (required)")
	flag.Parse()

	if *accountFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("flags --account and --amount are required")
	}

	accountType, err := ledger.ParseAccountType(*typeFlag)
	if err != nil {
		return nil, err
	}
	number, err := ledger.ParseAccountNumber(*accountFlag)
	if err != nil {
		return nil, err
	}
	amount, err := ledger.ParseAmount(*amountFlag)
	if err != nil {
		return nil, err
	}

	return &withdrawalRequest{accountType: accountType, number: number, amount: amount}, nil
}

// availableBefore reports the funds the withdrawal will be checked against
func availableBefore(ctx context.Context, services *common.Services, req *withdrawalRequest) (decimal.Decimal, error) {
	if req.accountType == ledger.BookletAccountType {
		view, err := services.Ledger.Booklet.Get(ctx, req.number)
		if err != nil {
			return decimal.Zero, err
		}
		return view.Balance, nil
	}
	return services.Ledger.Current.AvailableBalance(ctx, req.number)
}

func withdraw(ctx context.Context, services *common.Services, req *withdrawalRequest) (*models.OperationResult, error) {
	if req.accountType == ledger.BookletAccountType {
		return services.Ledger.Booklet.Withdraw(ctx, req.number, req.amount)
	}
	return services.Ledger.Current.Withdraw(ctx, req.number, req.amount)
}

func describeFailure(err error) string {
	switch {
	case errors.Is(err, ledger.ErrOverdraftLimitExceeded):
		return "Withdrawal would exceed the authorized overdraft"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, store.ErrConcurrentModification):
		return "Account was modified concurrently - please retry"
	case errors.Is(err, ledger.ErrNotFound):
		return "Account not found"
	default:
		return err.Error()
	}
}

func printWithdrawalSummary(req *withdrawalRequest, available decimal.Decimal) {
	common.PrintHeader("WITHDRAWAL REQUEST", common.DefaultWidth)
	fmt.Printf("Account:           %s (%s)\n", req.number, req.accountType)
	fmt.Printf("Available Funds:   %s\n", common.FormatAmount(available))
	fmt.Printf("Withdrawal Amount: %s\n", common.FormatAmount(req.amount))
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	zap.L().Info("Starting withdrawal",
		zap.String("account_number", req.number.String()),
		zap.String("account_type", string(req.accountType)),
		zap.String("amount", req.amount.String()))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:withdrawal"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	available, err := availableBefore(ctx, services, req)
	if err != nil {
		zap.L().Fatal("Failed to load account", zap.String("account_number", req.number.String()), zap.Error(err))
	}
	printWithdrawalSummary(req, available)

	result, err := withdraw(ctx, services, req)
	if err != nil {
		fmt.Printf("\n❌ %s\n", describeFailure(err))
		fmt.Printf("   Balance unchanged, available: %s\n\n", common.FormatAmount(available))
		zap.L().Fatal("Withdrawal failed", zap.Error(err))
	}

	fmt.Println("\n✅ Withdrawal completed")
	fmt.Printf("   New Balance:       %s\n", common.FormatAmount(result.NewBalance))
	fmt.Printf("   Available Balance: %s\n\n", common.FormatAmount(result.AvailableBalance))

	zap.L().Info("Withdrawal completed successfully",
		zap.String("account_number", result.AccountNumber),
		zap.String("new_balance", result.NewBalance.String()))
}
