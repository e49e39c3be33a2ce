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
	"bank-ledger-go/internal/models"

	"go.uber.org/zap"
)

func runSchemaOnly(ctx context.Context, cfg *models.Config) {
	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	common.PrintHeader("DATABASE READY", common.DefaultWidth)
	fmt.Printf("Path: %s\n", cfg.Database.Path)
	common.PrintSeparator("=", common.DefaultWidth)
}

func seedAccounts(ctx context.Context, services *common.Services, accountsFile string) {
	zap.L().Info("Loading account seeds", zap.String("file", accountsFile))
	seeds, err := common.LoadAccountSeeds(accountsFile)
	if err != nil {
		zap.L().Fatal("Failed to load account seeds", zap.Error(err))
	}
	zap.L().Info("Account seeds loaded", zap.Int("count", len(seeds)))

	created, err := common.SeedAccounts(ctx, services.Ledger, seeds)
	if err != nil {
		zap.L().Fatal("Failed to seed accounts", zap.Int("created", created), zap.Error(err))
	}

	common.PrintHeader("SETUP COMPLETE", common.DefaultWidth)
	fmt.Printf("Accounts in file:  %d\n", len(seeds))
	fmt.Printf("Accounts created:  %d\n", created)
	fmt.Printf("Already present:   %d\n", len(seeds)-created)
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("Setup complete",
		zap.Int("seeds", len(seeds)),
		zap.Int("created", created))
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	schemaOnly := flag.Bool("schema-only", false, "Only create the database schema")
	accountsFlag := flag.String("accounts", "", "Path to accounts.yaml (default: ACCOUNTS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:setup"})

	if *schemaOnly {
		runSchemaOnly(ctx, cfg)
		return
	}

	accountsFile := *accountsFlag
	if accountsFile == "" {
		accountsFile = cfg.Ledger.AccountsFile
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	seedAccounts(ctx, services, accountsFile)
}
