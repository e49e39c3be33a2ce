package models

import (
	"context"
)

type operationContextKey struct{}

// OperationContext carries caller details through context so ledger backends
// can attach them as transaction metadata without widening the repository
// interfaces.
type OperationContext struct {
	Channel string // entry point, e.g. "cli:deposit" or "scheduler"
}

// WithOperationContext attaches operation details to a context.
func WithOperationContext(ctx context.Context, oc *OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, oc)
}

// GetOperationContext retrieves operation details from context, or nil if absent.
func GetOperationContext(ctx context.Context) *OperationContext {
	oc, _ := ctx.Value(operationContextKey{}).(*OperationContext)
	return oc
}
