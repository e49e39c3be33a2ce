package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Ledger    LedgerConfig
	Formance  FormanceConfig
	Events    EventsConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// LedgerConfig selects the transaction log backend and tunes the application services
type LedgerConfig struct {
	Backend           string // "sqlite" or "formance"
	OptimisticRetries int
	AccountsFile      string
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// EventsConfig controls how transaction events reach the recorder
type EventsConfig struct {
	Mode        string // "inline" or "amqp"
	RabbitMQURL string
	Exchange    string
	Queue       string
}

// CacheConfig holds the optional Redis statement cache settings
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	StatementTTL  time.Duration
}

// SchedulerConfig holds the statement job settings
type SchedulerConfig struct {
	StatementSchedule string
	Workers           int
	RunOnStart        bool
}

const (
	BackendSQLite   = "sqlite"
	BackendFormance = "formance"

	EventsInline = "inline"
	EventsAMQP   = "amqp"
)
