package ledger

import (
	"context"

	"github.com/erp/bullion/internal/domain/ledger"
)

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches a client supplied idempotency key to ctx
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKey returns the key attached by WithIdempotencyKey
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}

// idempotencyKey scopes the client key by operation, so the same key sent
// to two different endpoints does not replay the wrong entry
func (s *LedgerService) idempotencyKey(ctx context.Context, typ ledger.TransactionType) string {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return ""
	}
	key := IdempotencyKey(ctx)
	if key == "" {
		return ""
	}
	return "ledger:" + typ.String() + ":" + key
}
