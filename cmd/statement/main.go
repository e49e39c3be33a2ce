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
	"time"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"go.uber.org/zap"
)

func parsePeriodEnd(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period end %q: expected RFC3339 or YYYY-MM-DD", raw)
	}
	// A bare date covers the whole day
	return t.Add(24*time.Hour - time.Nanosecond).UTC(), nil
}

func printStatement(s models.StatementView) {
	common.PrintHeader(fmt.Sprintf("MONTHLY STATEMENT %s", s.AccountNumber), common.WideWidth)
	fmt.Printf("Account Type:    %s\n", s.AccountType)
	fmt.Printf("Period:          %s to %s\n", s.PeriodStart.Format(time.RFC3339), s.PeriodEnd.Format(time.RFC3339))
	fmt.Printf("Generated:       %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Opening Balance: %s\n", common.FormatAmount(s.OpeningBalance))

	fmt.Printf("\n┌─ Transactions: %d\n", len(s.Transactions))
	common.PrintBoxSeparator(98)
	for i, tx := range s.Transactions {
		fmt.Printf("%s%s  %-10s %20s\n",
			common.BoxPrefix(i == len(s.Transactions)-1),
			tx.OccurredAt.Format("2006-01-02 15:04:05"),
			tx.Type,
			common.FormatAmount(tx.Amount))
	}

	common.PrintSeparatorNewline("-", common.WideWidth)
	fmt.Printf("Total Deposits:    %s\n", common.FormatAmount(s.TotalDeposits))
	fmt.Printf("Total Withdrawals: %s\n", common.FormatAmount(s.TotalWithdrawals))
	fmt.Printf("Closing Balance:   %s\n", common.FormatAmount(s.ClosingBalance))
	reconciled := "yes"
	if !s.Reconciled {
		reconciled = "NO"
		zap.L().Warn("Statement does not reconcile with its transactions",
			zap.String("statement_id", s.Id),
			zap.String("account_number", s.AccountNumber))
	}
	common.PrintFooter("Reconciled: "+reconciled, common.WideWidth)
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	typeFlag := flag.String("type", "current", "Account type: current or booklet")
	accountFlag := flag.String("account", "", "Account number (required)")
	generateFlag := flag.Bool("generate", false, "Generate and store a new statement (default lists stored statements)")
	periodEndFlag := flag.String("period-end", "", "Statement period end, RFC3339 or YYYY-MM-DD (default: now)")
	flag.Parse()

	if *accountFlag == "" {
		zap.L().Fatal("Flag --account is required")
	}
	accountType, err := ledger.ParseAccountType(*typeFlag)
	if err != nil {
		zap.L().Fatal("Invalid account type", zap.Error(err))
	}
	number, err := ledger.ParseAccountNumber(*accountFlag)
	if err != nil {
		zap.L().Fatal("Invalid account number", zap.Error(err))
	}
	periodEnd, err := parsePeriodEnd(*periodEndFlag)
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:statement"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *generateFlag {
		statement, err := services.Ledger.Statements.Generate(ctx, number, accountType, periodEnd)
		if err != nil {
			zap.L().Fatal("Failed to generate statement", zap.Error(err))
		}
		printStatement(*statement)
		return
	}

	statements, err := services.Ledger.Statements.List(ctx, number)
	if err != nil {
		zap.L().Fatal("Failed to list statements", zap.Error(err))
	}
	if len(statements) == 0 {
		fmt.Printf("No statements stored for account %s\n", number)
		return
	}
	for _, s := range statements {
		printStatement(s)
	}
}
