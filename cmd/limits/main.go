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

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	typeFlag := flag.String("type", "current", "Account type: current (overdraft limit) or booklet (deposit limit)")
	accountFlag := flag.String("account", "", "Account number (required)")
	limitFlag := flag.String("limit", "", "New limit (required)")
	flag.Parse()

	if *accountFlag == "" || *limitFlag == "" {
		zap.L().Fatal("Flags --account and --limit are required")
	}
	accountType, err := ledger.ParseAccountType(*typeFlag)
	if err != nil {
		zap.L().Fatal("Invalid account type", zap.Error(err))
	}
	number, err := ledger.ParseAccountNumber(*accountFlag)
	if err != nil {
		zap.L().Fatal("Invalid account number", zap.Error(err))
	}
	limit, err := ledger.ParseLimit(*limitFlag)
	if err != nil {
		zap.L().Fatal("Invalid limit", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:limits"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if accountType == ledger.BookletAccountType {
		view, err := services.Ledger.Booklet.UpdateDepositLimit(ctx, number, limit)
		if err != nil {
			zap.L().Fatal("Failed to update deposit limit", zap.Error(err))
		}
		common.PrintHeader("DEPOSIT LIMIT UPDATED", common.DefaultWidth)
		fmt.Printf("Account:            %s\n", view.AccountNumber)
		fmt.Printf("Deposit Limit:      %s\n", common.FormatAmount(view.DepositLimit))
		fmt.Printf("Balance:            %s\n", common.FormatAmount(view.Balance))
		fmt.Printf("Remaining Capacity: %s\n", common.FormatAmount(view.RemainingDepositCapacity))
		common.PrintSeparator("=", common.DefaultWidth)
		return
	}

	view, err := services.Ledger.Current.SetOverdraftLimit(ctx, number, limit)
	if err != nil {
		zap.L().Fatal("Failed to update overdraft limit", zap.Error(err))
	}
	common.PrintHeader("OVERDRAFT LIMIT UPDATED", common.DefaultWidth)
	fmt.Printf("Account:           %s\n", view.AccountNumber)
	fmt.Printf("Overdraft Allowed: %t\n", view.OverdraftAllowed)
	fmt.Printf("Overdraft Limit:   %s\n", common.FormatAmount(view.OverdraftLimit))
	fmt.Printf("Balance:           %s\n", common.FormatAmount(view.Balance))
	fmt.Printf("Available Balance: %s\n", common.FormatAmount(view.AvailableBalance))
	common.PrintSeparator("=", common.DefaultWidth)
}
