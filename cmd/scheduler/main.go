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
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/scheduler"

	"go.uber.org/zap"
)

func main() {
	onceFlag := flag.Bool("once", false, "Generate statements for all active accounts once and exit")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = models.WithOperationContext(ctx, &models.OperationContext{Channel: "scheduler"})

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	s := scheduler.New(services.Ledger.Statements, cfg.Scheduler)

	if *onceFlag || cfg.Scheduler.RunOnStart {
		generated, err := s.RunOnce(ctx)
		if err != nil {
			zap.L().Error("Statement run finished with errors", zap.Int("generated", generated), zap.Error(err))
		} else {
			zap.L().Info("Statement run completed", zap.Int("generated", generated))
		}
		if *onceFlag {
			return
		}
	}

	if err := s.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start scheduler", zap.Error(err))
	}
	zap.L().Info("Statement scheduler running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping scheduler...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	select {
	case <-s.Stop().Done():
		zap.L().Info("Scheduler stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
