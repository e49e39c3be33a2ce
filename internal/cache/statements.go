package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bank-ledger-go/internal/ledger"
	"bank-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const statementNamespace = "statement:account:"

// Compile-time check: *StatementCache must satisfy store.StatementRepository.
var _ store.StatementRepository = (*StatementCache)(nil)

// StatementCache is a read-through cache in front of a StatementRepository.
// Saving a statement evicts the account's entry. Cache failures are logged
// and the call falls through to the wrapped repository.
type StatementCache struct {
	next store.StatementRepository
	kv   kv
	ttl  time.Duration
}

func NewStatementCache(next store.StatementRepository, kv kv, ttl time.Duration) *StatementCache {
	return &StatementCache{next: next, kv: kv, ttl: ttl}
}

func (c *StatementCache) Save(ctx context.Context, statement *ledger.MonthlyStatement) error {
	if err := c.next.Save(ctx, statement); err != nil {
		return err
	}
	if err := c.kv.Del(ctx, statementKey(statement.AccountNumber)); err != nil {
		zap.L().Warn("Failed to evict cached statements",
			zap.String("account_number", statement.AccountNumber.String()),
			zap.Error(err))
	}
	return nil
}

func (c *StatementCache) GetByAccountNumber(ctx context.Context, number uuid.UUID) ([]*ledger.MonthlyStatement, error) {
	key := statementKey(number)

	cached, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var statements []*ledger.MonthlyStatement
		if err := json.Unmarshal([]byte(cached), &statements); err == nil {
			zap.L().Debug("Statement cache hit", zap.String("account_number", number.String()))
			return statements, nil
		}
		zap.L().Warn("Discarding undecodable cached statements", zap.String("key", key))
	case !errors.Is(err, errMiss):
		zap.L().Warn("Statement cache unavailable", zap.String("key", key), zap.Error(err))
	}

	statements, err := c.next.GetByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(statements)
	if err != nil {
		zap.L().Warn("Failed to encode statements for cache", zap.Error(err))
		return statements, nil
	}
	if err := c.kv.Set(ctx, key, string(body), c.ttl); err != nil {
		zap.L().Warn("Failed to populate statement cache", zap.String("key", key), zap.Error(err))
	}
	return statements, nil
}

func statementKey(number uuid.UUID) string {
	return statementNamespace + number.String()
}
