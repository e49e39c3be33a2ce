package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"bank-ledger-go/internal/api"
	"bank-ledger-go/internal/cache"
	"bank-ledger-go/internal/database"
	"bank-ledger-go/internal/events"
	"bank-ledger-go/internal/formance"
	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Reconciler checks an account's balance against its transaction log
type Reconciler interface {
	ReconcileBalance(ctx context.Context, account ledger.Account) error
}

type Services struct {
	DbService    *database.Service
	Ledger       *api.LedgerService
	Transactions store.TransactionRepository
	Reconciler   Reconciler
	Dispatcher   *events.Dispatcher

	config    *models.Config
	amqpConn  *amqp.Connection
	publisher *events.Publisher
	redis     *cache.RedisStore
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the account services to the configured
// transaction log backend, event side channel and statement cache.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	cs := &Services{DbService: dbService, config: cfg}

	if err := cs.initTransactionLog(ctx); err != nil {
		cs.Close()
		return nil, err
	}

	cs.Dispatcher = events.NewDispatcher()
	if err := cs.initEvents(); err != nil {
		cs.Close()
		return nil, err
	}

	cs.Ledger = api.NewLedgerService(api.Config{
		CurrentAccounts: dbService.CurrentAccounts(),
		BookletAccounts: dbService.BookletAccounts(),
		Transactions:    cs.Transactions,
		Statements:      cs.initStatementCache(ctx),
		Events:          cs.Dispatcher,
		Retries:         cfg.Ledger.OptimisticRetries,
	})
	if err := cs.Ledger.HealthCheck(ctx); err != nil {
		cs.Close()
		return nil, err
	}

	zap.L().Info("Services initialized",
		zap.String("backend", cfg.Ledger.Backend),
		zap.String("events_mode", cfg.Events.Mode),
		zap.Bool("statement_cache", cs.redis != nil))
	return cs, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for schema setup
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) initTransactionLog(ctx context.Context) error {
	switch cs.config.Ledger.Backend {
	case models.BackendFormance:
		formanceService, err := formance.NewService(ctx, cs.config.Formance)
		if err != nil {
			return fmt.Errorf("failed to initialize formance backend: %w", err)
		}
		cs.Transactions = formanceService
		cs.Reconciler = formanceService
	default:
		cs.Transactions = cs.DbService.Transactions()
		cs.Reconciler = cs.DbService.Transactions()
	}
	return nil
}

func (cs *Services) initEvents() error {
	if cs.config.Events.Mode != models.EventsAMQP {
		cs.Dispatcher.Register(events.NewRecorder(cs.Transactions))
		return nil
	}

	zap.L().Info("Connecting to RabbitMQ", zap.String("exchange", cs.config.Events.Exchange))
	conn, err := events.Dial(cs.config.Events.RabbitMQURL)
	if err != nil {
		return err
	}
	cs.amqpConn = conn

	publisher, err := events.NewPublisher(conn, cs.config.Events.Exchange)
	if err != nil {
		return err
	}
	cs.publisher = publisher
	cs.Dispatcher.Register(publisher)
	return nil
}

// initStatementCache puts Redis in front of the statement store when
// configured and reachable
func (cs *Services) initStatementCache(ctx context.Context) store.StatementRepository {
	statements := cs.DbService.Statements()
	if cs.config.Cache.RedisAddr == "" {
		return statements
	}

	redisStore := cache.NewRedisStore(cs.config.Cache)
	if err := redisStore.Ping(ctx); err != nil {
		zap.L().Warn("Statement cache disabled, Redis unreachable",
			zap.String("addr", cs.config.Cache.RedisAddr),
			zap.Error(err))
		_ = redisStore.Close()
		return statements
	}
	cs.redis = redisStore
	return cache.NewStatementCache(statements, redisStore, cs.config.Cache.StatementTTL)
}

// NewRecorderConsumer builds the RabbitMQ consumer that records transaction
// events into the configured transaction log
func (cs *Services) NewRecorderConsumer() (*events.Consumer, error) {
	if cs.amqpConn == nil {
		return nil, fmt.Errorf("recorder requires EVENTS_MODE=%s", models.EventsAMQP)
	}
	return events.NewConsumer(cs.amqpConn, events.ConsumerConfig{
		Exchange: cs.config.Events.Exchange,
		Queue:    cs.config.Events.Queue,
		Listener: events.NewRecorder(cs.Transactions),
	})
}

func (cs *Services) Close() {
	if cs.publisher != nil {
		if err := cs.publisher.Close(); err != nil {
			zap.L().Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if cs.amqpConn != nil {
		if err := cs.amqpConn.Close(); err != nil {
			zap.L().Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}
	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			zap.L().Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
