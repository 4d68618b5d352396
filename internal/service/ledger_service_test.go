package service

import (
	"context"
	"testing"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	svc          *LedgerServiceImpl
	transferRepo *mocks.MockTransferRepository
	accountRepo  *mocks.MockAccountRepository
	ctrl         *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		transferRepo: mocks.NewMockTransferRepository(ctrl),
		accountRepo:  mocks.NewMockAccountRepository(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewLedgerService(d.transferRepo, d.accountRepo, 8)
	return d
}

func TestLedgerService_RecentActivity_DefaultLimit(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	transfers := []domain.Transfer{
		{ID: uuid.New(), SenderID: id, Amount: decimal.RequireFromString("10.00")},
	}

	d.accountRepo.EXPECT().GetByID(ctx, id).Return(&domain.Account{ID: id}, nil)
	d.transferRepo.EXPECT().ListByParty(ctx, id, int32(8)).Return(transfers, nil)

	got, err := d.svc.RecentActivity(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedgerService_RecentActivity_ExplicitLimit(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.accountRepo.EXPECT().GetByID(ctx, id).Return(&domain.Account{ID: id}, nil)
	d.transferRepo.EXPECT().ListByParty(ctx, id, int32(3)).Return(nil, nil)

	got, err := d.svc.RecentActivity(ctx, id, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLedgerService_FullHistory(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.accountRepo.EXPECT().GetByID(ctx, id).Return(&domain.Account{ID: id}, nil)
	d.transferRepo.EXPECT().ListByParty(ctx, id, int32(0)).Return([]domain.Transfer{
		{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()},
	}, nil)

	got, err := d.svc.FullHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLedgerService_UnknownAccount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.accountRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	got, err := d.svc.FullHistory(ctx, id)
	assert.Nil(t, got)
	assertAppError(t, err, "ACC_001")
}
