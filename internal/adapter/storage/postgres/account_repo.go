package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, name, email, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Name, a.Email, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID (without locking).
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, name, email, balance, created_at, updated_at
		FROM accounts WHERE id = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByEmail fetches an account by its email lookup key (non-locking read).
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT id, name, email, balance, created_at, updated_at
		FROM accounts WHERE email = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, email), "get account by email")
}

// GetByIDForUpdate fetches an account with a row-level pessimistic lock.
// This MUST be called within a transaction; the lock is held until the
// transaction commits or rolls back.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, name, email, balance, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`

	return scanAccount(tx.QueryRow(ctx, query, id), "get account for update")
}

// UpdateBalance writes a new balance for a previously locked account row
// within a transaction.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// scanAccount is a helper to scan a single row into an Account.
func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
