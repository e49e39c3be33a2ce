package config

import (
	"testing"
	"time"

	"bank-ledger-go/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_PATH", "LEDGER_BACKEND", "EVENTS_MODE", "REDIS_ADDR", "STATEMENT_SCHEDULE", "OPTIMISTIC_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "ledger.db" {
		t.Errorf("Expected database path ledger.db, got %s", cfg.Database.Path)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected 25 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.PingTimeout != 5*time.Second {
		t.Errorf("Expected 5s ping timeout, got %v", cfg.Database.PingTimeout)
	}
	if cfg.Ledger.Backend != models.BackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", cfg.Ledger.Backend)
	}
	if cfg.Ledger.OptimisticRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.Ledger.OptimisticRetries)
	}
	if cfg.Events.Mode != models.EventsInline {
		t.Errorf("Expected inline events, got %s", cfg.Events.Mode)
	}
	if cfg.Cache.RedisAddr != "" {
		t.Errorf("Expected cache disabled by default, got %s", cfg.Cache.RedisAddr)
	}
	if cfg.Scheduler.StatementSchedule != "0 2 1 * *" {
		t.Errorf("Expected monthly schedule, got %s", cfg.Scheduler.StatementSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "Formance")
	t.Setenv("EVENTS_MODE", "amqp")
	t.Setenv("STATEMENT_CACHE_TTL", "90s")
	t.Setenv("OPTIMISTIC_RETRIES", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	t.Setenv("STATEMENT_RUN_ON_START", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.Backend != models.BackendFormance {
		t.Errorf("Expected formance backend, got %s", cfg.Ledger.Backend)
	}
	if cfg.Events.Mode != models.EventsAMQP {
		t.Errorf("Expected amqp events, got %s", cfg.Events.Mode)
	}
	if cfg.Cache.StatementTTL != 90*time.Second {
		t.Errorf("Expected 90s TTL, got %v", cfg.Cache.StatementTTL)
	}
	if cfg.Ledger.OptimisticRetries != 7 {
		t.Errorf("Expected 7 retries, got %d", cfg.Ledger.OptimisticRetries)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("Expected malformed int to fall back to 5, got %d", cfg.Database.MaxIdleConns)
	}
	if !cfg.Scheduler.RunOnStart {
		t.Error("Expected scheduler to run on start")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"DB_PING_TIMEOUT": "soon",
		"LEDGER_BACKEND":  "postgres",
		"EVENTS_MODE":     "kafka",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", key, value)
			}
		})
	}
}
