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

	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts  int
	activeAccounts int
	inOverdraft    int
	reconciled     int
	mismatched     int
}

func formatVersion(version int64) string {
	if version == 0 {
		return "new"
	}
	return fmt.Sprintf("v%d", version)
}

func printAccount(account ledger.Account, version int64, reconcileErr error, reconciled bool) {
	state := "active"
	if !account.IsActive() {
		state = "inactive"
	}

	fmt.Printf("\n┌─ %s %s\n", account.Type(), account.Number())
	fmt.Printf("│  Status: %s (%s)\n", state, formatVersion(version))
	common.PrintBoxSeparator(78)
	fmt.Printf("%s%-12s: %20s\n", common.BoxPrefix(false), "balance", common.FormatAmount(account.CurrentBalance()))
	fmt.Printf("%s%-12s: %20s\n", common.BoxPrefix(!reconciled), "available", common.FormatAmount(account.AvailableBalance()))
	if !reconciled {
		return
	}
	result := "OK"
	if reconcileErr != nil {
		result = "MISMATCH: " + reconcileErr.Error()
	}
	fmt.Printf("%s%-12s: %s\n", common.BoxPrefix(true), "transactions", result)
}

func processAccount(ctx context.Context, services *common.Services, account ledger.Account, version int64, reconcile bool, stats *balanceStats) {
	stats.totalAccounts++
	if account.IsActive() {
		stats.activeAccounts++
	}
	if account.CurrentBalance().IsNegative() {
		stats.inOverdraft++
	}

	var reconcileErr error
	if reconcile {
		reconcileErr = services.Reconciler.ReconcileBalance(ctx, account)
		if reconcileErr != nil {
			stats.mismatched++
			zap.L().Error("Balance does not match transaction log",
				zap.String("account_number", account.Number().String()),
				zap.Error(reconcileErr))
		} else {
			stats.reconciled++
		}
	}

	printAccount(account, version, reconcileErr, reconcile)
}

func generateReport(ctx context.Context, services *common.Services, reconcile bool) (balanceStats, error) {
	stats := balanceStats{}

	current, err := services.DbService.CurrentAccounts().List(ctx, false)
	if err != nil {
		return stats, fmt.Errorf("failed to list current accounts: %w", err)
	}
	for _, account := range current {
		processAccount(ctx, services, account, account.Version, reconcile, &stats)
	}

	booklet, err := services.DbService.BookletAccounts().List(ctx, false)
	if err != nil {
		return stats, fmt.Errorf("failed to list booklet accounts: %w", err)
	}
	for _, account := range booklet {
		processAccount(ctx, services, account, account.Version, reconcile, &stats)
	}

	return stats, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	reconcileFlag := flag.Bool("reconcile", false, "Check each balance against the transaction log")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.WideWidth)

	stats, err := generateReport(ctx, services, *reconcileFlag)
	if err != nil {
		logger.Fatal("Failed to generate report", zap.Error(err))
	}

	summary := fmt.Sprintf("SUMMARY: %d accounts (%d active, %d in overdraft)",
		stats.totalAccounts, stats.activeAccounts, stats.inOverdraft)
	if *reconcileFlag {
		summary += fmt.Sprintf(", %d reconciled, %d mismatched", stats.reconciled, stats.mismatched)
	}
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Balance query completed",
		zap.Int("accounts", stats.totalAccounts),
		zap.Int("active", stats.activeAccounts),
		zap.Int("mismatched", stats.mismatched))
}
