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
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-ledger-go/internal/common"
	"bank-ledger-go/internal/config"
	"bank-ledger-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = models.WithOperationContext(ctx, &models.OperationContext{Channel: "recorder"})

	zap.L().Info("Starting transaction recorder")

	if cfg.Events.Mode != models.EventsAMQP {
		zap.L().Fatal("Recorder requires EVENTS_MODE=amqp", zap.String("events_mode", cfg.Events.Mode))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	consumer, err := services.NewRecorderConsumer()
	if err != nil {
		zap.L().Fatal("Failed to create consumer", zap.Error(err))
	}
	if err := consumer.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start consumer", zap.Error(err))
	}

	zap.L().Info("Recorder running",
		zap.String("exchange", cfg.Events.Exchange),
		zap.String("queue", cfg.Events.Queue))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping recorder...")
	case <-consumer.Done():
		zap.L().Warn("Consumer stopped, broker closed the delivery channel")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		consumer.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Recorder stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
