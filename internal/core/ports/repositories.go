package ports

import (
	"context"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside the transfer engine's atomic unit
// and rely on row-level pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// GetByEmail resolves a receiver lookup key to an account.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// GetByIDForUpdate locks the account row until the surrounding
	// transaction commits or rolls back.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	// UpdateBalance writes the new balance for a previously locked row.
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
}

// TransferRepository defines persistence for the append-only ledger log.
// There is deliberately no update or delete operation.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	// ListByParty returns transfers where the account is sender or
	// receiver, newest first. limit <= 0 means full history.
	ListByParty(ctx context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error)
}

// IdempotencyRepository defines durable storage for idempotency logs.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
