package service

import (
	"context"
	"fmt"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountServiceImpl implements ports.AccountService. Opening is the only
// balance mutation outside the transfer engine: the configured starting
// balance is credited exactly once, at creation.
type AccountServiceImpl struct {
	accountRepo     ports.AccountRepository
	startingBalance decimal.Decimal
	log             zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl. startingBalance is
// the opening-credit policy, injected from configuration.
func NewAccountService(accountRepo ports.AccountRepository, startingBalance decimal.Decimal, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo:     accountRepo,
		startingBalance: startingBalance,
		log:             log,
	}
}

// Open creates a new account seeded with the starting balance.
func (s *AccountServiceImpl) Open(ctx context.Context, name, email string) (*domain.Account, error) {
	email = normalizeEmail(email)

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Balance:   s.startingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("starting_balance", s.startingBalance.String()).
		Msg("account opened")

	return account, nil
}

// GetBalance fetches an account for balance display.
func (s *AccountServiceImpl) GetBalance(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}
