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
	"flag"
	"fmt"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type depositRequest struct {
	accountType ledger.AccountType
	number      uuid.UUID
	amount      decimal.Decimal
}

func parseAndValidateFlags() (*depositRequest, error) {
	typeFlag := flag.String("type", "current", "Account type: current or booklet")
	accountFlag := flag.String("account", "", "Account number (required)")
	amountFlag := flag.String("amount", "", "Amount to deposit (required)")
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

	return &depositRequest{accountType: accountType, number: number, amount: amount}, nil
}

func deposit(ctx context.Context, services *common.Services, req *depositRequest) (*models.OperationResult, error) {
	if req.accountType == ledger.BookletAccountType {
		return services.Ledger.Booklet.Deposit(ctx, req.number, req.amount)
	}
	return services.Ledger.Current.Deposit(ctx, req.number, req.amount)
}

func printResult(result *models.OperationResult) {
	common.PrintHeader("DEPOSIT COMPLETED", common.DefaultWidth)
	fmt.Printf("Account:           %s (%s)\n", result.AccountNumber, result.AccountType)
	fmt.Printf("Amount:            %s\n", common.FormatAmount(result.Amount))
	fmt.Printf("New Balance:       %s\n", common.FormatAmount(result.NewBalance))
	fmt.Printf("Available Balance: %s\n", common.FormatAmount(result.AvailableBalance))
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	zap.L().Info("Starting deposit",
		zap.String("account_number", req.number.String()),
		zap.String("account_type", string(req.accountType)),
		zap.String("amount", req.amount.String()))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:deposit"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := deposit(ctx, services, req)
	if err != nil {
		common.PrintHeader("DEPOSIT FAILED", common.DefaultWidth)
		fmt.Printf("Account: %s\n", req.number)
		fmt.Printf("Amount:  %s\n", common.FormatAmount(req.amount))
		fmt.Printf("Error:   %v\n", err)
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Fatal("Deposit failed", zap.Error(err))
	}

	printResult(result)
}
