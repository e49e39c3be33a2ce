package scheduler

import (
	"context"
	"fmt"
	"time"

	"bank-ledger-go/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StatementRunner generates statements for every active account
type StatementRunner interface {
	GenerateForActiveAccounts(ctx context.Context, periodEnd time.Time, workers int) (int, error)
}

// Scheduler runs the monthly statement job on a cron schedule
type Scheduler struct {
	cron       *cron.Cron
	statements StatementRunner
	config     models.SchedulerConfig
	now        func() time.Time
}

func New(statements StatementRunner, cfg models.SchedulerConfig) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	return &Scheduler{
		cron:       c,
		statements: statements,
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the statement job and starts the cron scheduler. Jobs
// stop running new passes once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.config.StatementSchedule, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RunOnce(ctx); err != nil {
			zap.L().Error("Scheduled statement run finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule statement job %q: %w", s.config.StatementSchedule, err)
	}

	zap.L().Info("Scheduled statement job",
		zap.String("schedule", s.config.StatementSchedule),
		zap.Int("workers", s.config.Workers))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce generates statements for the period ending now
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	periodEnd := s.now()
	zap.L().Info("Starting statement run", zap.Time("period_end", periodEnd))
	return s.statements.GenerateForActiveAccounts(ctx, periodEnd, s.config.Workers)
}

// cronLogger routes cron's own messages to zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
