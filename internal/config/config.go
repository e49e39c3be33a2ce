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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bank-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	statementTTL, err := getEnvDuration("STATEMENT_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("LEDGER_BACKEND", models.BackendSQLite))
	if backend != models.BackendSQLite && backend != models.BackendFormance {
		return nil, fmt.Errorf("invalid LEDGER_BACKEND %q: expected %q or %q", backend, models.BackendSQLite, models.BackendFormance)
	}

	eventsMode := strings.ToLower(getEnvString("EVENTS_MODE", models.EventsInline))
	if eventsMode != models.EventsInline && eventsMode != models.EventsAMQP {
		return nil, fmt.Errorf("invalid EVENTS_MODE %q: expected %q or %q", eventsMode, models.EventsInline, models.EventsAMQP)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Ledger: models.LedgerConfig{
			Backend:           backend,
			OptimisticRetries: getEnvInt("OPTIMISTIC_RETRIES", 3),
			AccountsFile:      getEnvString("ACCOUNTS_FILE", "accounts.yaml"),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "bank-ledger"),
		},
		Events: models.EventsConfig{
			Mode:        eventsMode,
			RabbitMQURL: getEnvString("RABBITMQ_URL", ""),
			Exchange:    getEnvString("EVENTS_EXCHANGE", "ledger_events"),
			Queue:       getEnvString("EVENTS_QUEUE", "ledger_transaction_recorder"),
		},
		Cache: models.CacheConfig{
			RedisAddr:     getEnvString("REDIS_ADDR", ""),
			RedisPassword: getEnvString("REDIS_PASSWORD", ""),
			StatementTTL:  statementTTL,
		},
		Scheduler: models.SchedulerConfig{
			StatementSchedule: getEnvString("STATEMENT_SCHEDULE", "0 2 1 * *"),
			Workers:           getEnvInt("STATEMENT_WORKERS", 4),
			RunOnStart:        getEnvBool("STATEMENT_RUN_ON_START", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
