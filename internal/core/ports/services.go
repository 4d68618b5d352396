package ports

import (
	"context"
	"time"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// TransferService is the transfer engine: it validates and executes a
// transfer as a single atomic unit spanning both balance mutations and
// the ledger append.
type TransferService interface {
	Execute(ctx context.Context, req ExecuteRequest) (*domain.Transfer, error)
}

// ExecuteRequest holds validated input for a transfer. SenderID is the
// already-authenticated actor identity supplied by the caller boundary.
type ExecuteRequest struct {
	SenderID      uuid.UUID
	ReceiverEmail string
	Amount        decimal.Decimal
	Note          string
	// IdempotencyKey is optional. A repeated key is a no-op returning
	// the original transfer record.
	IdempotencyKey string
}

// AccountService defines account opening and balance lookup.
type AccountService interface {
	Open(ctx context.Context, name, email string) (*domain.Account, error)
	GetBalance(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// LedgerService is the read-only projection over the ledger log.
// It reflects committed transfers only.
type LedgerService interface {
	RecentActivity(ctx context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error)
	FullHistory(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error)
}
