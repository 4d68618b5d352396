package service

import (
	"context"
	"fmt"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// LedgerServiceImpl implements ports.LedgerService. It is read-only and
// shares nothing with the write path except the ledger log itself, so it
// only ever observes committed transfers.
type LedgerServiceImpl struct {
	transferRepo ports.TransferRepository
	accountRepo  ports.AccountRepository
	defaultLimit int32
}

// NewLedgerService creates a new LedgerServiceImpl. defaultLimit bounds
// RecentActivity when the caller passes no limit.
func NewLedgerService(transferRepo ports.TransferRepository, accountRepo ports.AccountRepository, defaultLimit int32) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		transferRepo: transferRepo,
		accountRepo:  accountRepo,
		defaultLimit: defaultLimit,
	}
}

// RecentActivity returns the most recent transfers involving the account,
// newest first.
func (s *LedgerServiceImpl) RecentActivity(ctx context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.listFor(ctx, accountID, limit)
}

// FullHistory returns every transfer involving the account, newest first.
func (s *LedgerServiceImpl) FullHistory(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error) {
	return s.listFor(ctx, accountID, 0)
}

func (s *LedgerServiceImpl) listFor(ctx context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	transfers, err := s.transferRepo.ListByParty(ctx, accountID, limit)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("list transfers: %w", err))
	}
	return transfers, nil
}
