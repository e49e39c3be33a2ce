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

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type accountsRequest struct {
	action           string
	accountType      ledger.AccountType
	number           uuid.UUID
	initialBalance   decimal.Decimal
	overdraftAllowed bool
	overdraftLimit   decimal.Decimal
	depositLimit     decimal.Decimal
	activeOnly       bool
}

func parseFlags() (*accountsRequest, error) {
	actionFlag := flag.String("action", "list", "Action: list, show, open, activate, deactivate, close")
	typeFlag := flag.String("type", "current", "Account type: current or booklet")
	accountFlag := flag.String("account", "", "Account number (generated on open when empty)")
	balanceFlag := flag.String("balance", "0", "Initial balance for open")
	overdraftFlag := flag.Bool("overdraft", false, "Allow overdraft on a new current account")
	overdraftLimitFlag := flag.String("overdraft-limit", "0", "Overdraft limit for a new current account")
	depositLimitFlag := flag.String("deposit-limit", "0", "Deposit limit for a new booklet account (0 selects the default)")
	activeOnlyFlag := flag.Bool("active-only", false, "List only active accounts")
	flag.Parse()

	req := &accountsRequest{
		action:           *actionFlag,
		overdraftAllowed: *overdraftFlag,
		activeOnly:       *activeOnlyFlag,
	}

	var err error
	if req.accountType, err = ledger.ParseAccountType(*typeFlag); err != nil {
		return nil, err
	}
	if *accountFlag != "" {
		if req.number, err = ledger.ParseAccountNumber(*accountFlag); err != nil {
			return nil, err
		}
	} else if req.action != "list" && req.action != "open" {
		return nil, fmt.Errorf("--account is required for action %q", req.action)
	}
	if req.initialBalance, err = decimal.NewFromString(*balanceFlag); err != nil {
		return nil, fmt.Errorf("invalid balance format: %w", err)
	}
	if req.overdraftLimit, err = ledger.ParseLimit(*overdraftLimitFlag); err != nil {
		return nil, err
	}
	if req.depositLimit, err = ledger.ParseLimit(*depositLimitFlag); err != nil {
		return nil, err
	}
	return req, nil
}

func printCurrent(view *models.CurrentAccountView, isLast bool) {
	fmt.Printf("%s%s  %s\n", common.BoxPrefix(isLast), view.AccountNumber, status(view.Active))
	detail := common.BoxDetailPrefix(isLast)
	fmt.Printf("%s   balance:   %s\n", detail, common.FormatAmount(view.Balance))
	fmt.Printf("%s   available: %s\n", detail, common.FormatAmount(view.AvailableBalance))
	if view.OverdraftAllowed {
		fmt.Printf("%s   overdraft: %s used of %s\n", detail,
			common.FormatAmount(view.OverdraftUsed), common.FormatAmount(view.OverdraftLimit))
	}
}

func printBooklet(view *models.BookletAccountView, isLast bool) {
	fmt.Printf("%s%s  %s\n", common.BoxPrefix(isLast), view.AccountNumber, status(view.Active))
	detail := common.BoxDetailPrefix(isLast)
	fmt.Printf("%s   balance:   %s\n", detail, common.FormatAmount(view.Balance))
	fmt.Printf("%s   capacity:  %s of %s\n", detail,
		common.FormatAmount(view.RemainingDepositCapacity), common.FormatAmount(view.DepositLimit))
}

func status(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

func list(ctx context.Context, svc *api.LedgerService, req *accountsRequest) error {
	if req.accountType == ledger.BookletAccountType {
		views, err := svc.Booklet.List(ctx, req.activeOnly)
		if err != nil {
			return err
		}
		common.PrintHeader(fmt.Sprintf("BOOKLET ACCOUNTS (%d)", len(views)), common.DefaultWidth)
		for i, v := range views {
			printBooklet(v, i == len(views)-1)
		}
		common.PrintSeparator("=", common.DefaultWidth)
		return nil
	}

	views, err := svc.Current.List(ctx, req.activeOnly)
	if err != nil {
		return err
	}
	common.PrintHeader(fmt.Sprintf("CURRENT ACCOUNTS (%d)", len(views)), common.DefaultWidth)
	for i, v := range views {
		printCurrent(v, i == len(views)-1)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	return nil
}

func show(ctx context.Context, svc *api.LedgerService, req *accountsRequest, title string) error {
	common.PrintHeader(title, common.DefaultWidth)
	defer common.PrintSeparator("=", common.DefaultWidth)

	if req.accountType == ledger.BookletAccountType {
		view, err := svc.Booklet.Get(ctx, req.number)
		if err != nil {
			return err
		}
		printBooklet(view, true)
		return nil
	}
	view, err := svc.Current.Get(ctx, req.number)
	if err != nil {
		return err
	}
	printCurrent(view, true)
	return nil
}

func open(ctx context.Context, svc *api.LedgerService, req *accountsRequest) error {
	if req.accountType == ledger.BookletAccountType {
		view, err := svc.Booklet.Open(ctx, api.OpenBookletAccountRequest{
			Number:         req.number,
			InitialBalance: req.initialBalance,
			DepositLimit:   req.depositLimit,
		})
		if err != nil {
			return err
		}
		req.number = uuid.MustParse(view.AccountNumber)
	} else {
		view, err := svc.Current.Open(ctx, api.OpenCurrentAccountRequest{
			Number:           req.number,
			InitialBalance:   req.initialBalance,
			OverdraftLimit:   req.overdraftLimit,
			OverdraftAllowed: req.overdraftAllowed,
		})
		if err != nil {
			return err
		}
		req.number = uuid.MustParse(view.AccountNumber)
	}
	return show(ctx, svc, req, "ACCOUNT OPENED")
}

func setActive(ctx context.Context, svc *api.LedgerService, req *accountsRequest, active bool) error {
	var err error
	switch {
	case req.accountType == ledger.BookletAccountType && active:
		_, err = svc.Booklet.Activate(ctx, req.number)
	case req.accountType == ledger.BookletAccountType:
		_, err = svc.Booklet.Deactivate(ctx, req.number)
	case active:
		_, err = svc.Current.Activate(ctx, req.number)
	default:
		_, err = svc.Current.Deactivate(ctx, req.number)
	}
	if err != nil {
		return err
	}
	return show(ctx, svc, req, "ACCOUNT "+status(active))
}

func closeAccount(ctx context.Context, svc *api.LedgerService, req *accountsRequest) error {
	var err error
	if req.accountType == ledger.BookletAccountType {
		err = svc.Booklet.Close(ctx, req.number)
	} else {
		err = svc.Current.Close(ctx, req.number)
	}
	if err != nil {
		return err
	}
	common.PrintHeader("ACCOUNT CLOSED", common.DefaultWidth)
	fmt.Printf("Account: %s (%s)\n", req.number, req.accountType)
	common.PrintSeparator("=", common.DefaultWidth)
	return nil
}

func run(ctx context.Context, svc *api.LedgerService, req *accountsRequest) error {
	switch req.action {
	case "list":
		return list(ctx, svc, req)
	case "show":
		return show(ctx, svc, req, "ACCOUNT DETAILS")
	case "open":
		return open(ctx, svc, req)
	case "activate":
		return setActive(ctx, svc, req, true)
	case "deactivate":
		return setActive(ctx, svc, req, false)
	case "close":
		return closeAccount(ctx, svc, req)
	default:
		return fmt.Errorf("unknown action %q", req.action)
	}
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := models.WithOperationContext(context.Background(), &models.OperationContext{Channel: "cli:accounts"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := run(ctx, services.Ledger, req); err != nil {
		zap.L().Fatal("Account action failed",
			zap.String("action", req.action),
			zap.String("account_type", string(req.accountType)),
			zap.Error(err))
	}
}
