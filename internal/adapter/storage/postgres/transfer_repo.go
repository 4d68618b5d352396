package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferRepo implements ports.TransferRepository. The transfers table is
// append-only: this type exposes no update or delete operation, and none
// exists elsewhere.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create appends a transfer record within a database transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO transfers (id, sender_id, receiver_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.SenderID, t.ReceiverID, t.Amount, t.Note, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by UUID, with party names joined in.
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT t.id, t.sender_id, t.receiver_id, t.amount, t.note, t.created_at,
		su.name, ru.name
		FROM transfers t
		LEFT JOIN accounts su ON su.id = t.sender_id
		LEFT JOIN accounts ru ON ru.id = t.receiver_id
		WHERE t.id = $1`

	t := &domain.Transfer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Note, &t.CreatedAt,
		&t.SenderName, &t.ReceiverName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer by id: %w", err)
	}
	return t, nil
}

// ListByParty fetches transfers where the account is sender or receiver,
// newest first. limit <= 0 returns the full history. The (created_at, id)
// ordering keeps same-timestamp records stable and consistent with commit
// order.
func (r *TransferRepo) ListByParty(ctx context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error) {
	query := `SELECT t.id, t.sender_id, t.receiver_id, t.amount, t.note, t.created_at,
		su.name, ru.name
		FROM transfers t
		LEFT JOIN accounts su ON su.id = t.sender_id
		LEFT JOIN accounts ru ON ru.id = t.receiver_id
		WHERE t.sender_id = $1 OR t.receiver_id = $1
		ORDER BY t.created_at DESC, t.id DESC`

	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers by party: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t := domain.Transfer{}
		err := rows.Scan(
			&t.ID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Note, &t.CreatedAt,
			&t.SenderName, &t.ReceiverName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return transfers, nil
}
