package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/internal/service"
	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopCache satisfies the idempotency cache port without Redis; the durable
// log still provides idempotency.
type nopCache struct{}

func (nopCache) Get(_ context.Context, _ string) ([]byte, error) { return nil, nil }
func (nopCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

type engineFixture struct {
	db       *memDB
	svc      ports.TransferService
	sender   *domain.Account
	receiver *domain.Account
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db := newMemDB()
	accountRepo := &memAccountRepo{db: db}
	transferRepo := &memTransferRepo{db: db}
	idempotencyRepo := &memIdempotencyRepo{db: db}
	transactor := &memTransactor{db: db}

	svc := service.NewTransferService(
		accountRepo, transferRepo, idempotencyRepo, nopCache{},
		transactor, 255, 5*time.Second, zerolog.Nop(),
	)

	ctx := context.Background()
	sender := &domain.Account{
		ID: uuid.New(), Name: "Asha Rao", Email: "asha@example.com",
		Balance: decimal.RequireFromString("1000.00"),
	}
	receiver := &domain.Account{
		ID: uuid.New(), Name: "Ben Okafor", Email: "ben@example.com",
		Balance: decimal.RequireFromString("1000.00"),
	}
	require.NoError(t, accountRepo.Create(ctx, sender))
	require.NoError(t, accountRepo.Create(ctx, receiver))

	return &engineFixture{db: db, svc: svc, sender: sender, receiver: receiver}
}

func (f *engineFixture) execute(amount string) error {
	_, err := f.svc.Execute(context.Background(), ports.ExecuteRequest{
		SenderID:      f.sender.ID,
		ReceiverEmail: f.receiver.Email,
		Amount:        decimal.RequireFromString(amount),
	})
	return err
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// --- Concurrency ---

// Twenty concurrent debits of 50.00 against a 1000.00 balance must all
// succeed and drain the account to exactly zero.
func TestEngine_ConcurrentTransfers_DrainExactly(t *testing.T) {
	f := newEngineFixture(t)

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.execute("50.00"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 0, failures.Load())
	assert.True(t, f.db.balanceOf(f.sender.ID).IsZero(),
		"sender balance = %s", f.db.balanceOf(f.sender.ID))
	assert.True(t, f.db.balanceOf(f.receiver.ID).Equal(decimal.RequireFromString("2000.00")))
	assert.Equal(t, 20, f.db.transferCount())
	assert.True(t, f.db.totalBalance().Equal(decimal.RequireFromString("2000.00")))
}

// Oversubscribed: 40 attempts of 50.00 against 1000.00. Exactly 20 can
// succeed; the rest fail with insufficient balance and leave no trace.
func TestEngine_ConcurrentTransfers_Oversubscribed(t *testing.T) {
	f := newEngineFixture(t)

	var wg sync.WaitGroup
	var successes, insufficient atomic.Int64
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.execute("50.00")
			switch {
			case err == nil:
				successes.Add(1)
			default:
				var appErr *apperror.AppError
				if assert.ErrorAs(t, err, &appErr) && appErr.Code == "TRF_001" {
					insufficient.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 20, successes.Load())
	assert.EqualValues(t, 20, insufficient.Load())
	assert.True(t, f.db.balanceOf(f.sender.ID).IsZero())
	assert.Equal(t, 20, f.db.transferCount())
	assert.True(t, f.db.totalBalance().Equal(decimal.RequireFromString("2000.00")))
}

// Transfers in both directions concurrently must terminate and conserve the
// total balance.
func TestEngine_ConcurrentTransfers_BothDirections(t *testing.T) {
	f := newEngineFixture(t)
	reverse := &engineFixture{db: f.db, svc: f.svc, sender: f.receiver, receiver: f.sender}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.execute("10.00")
		}()
		go func() {
			defer wg.Done()
			_ = reverse.execute("10.00")
		}()
	}
	wg.Wait()

	assert.True(t, f.db.totalBalance().Equal(decimal.RequireFromString("2000.00")),
		"total balance = %s", f.db.totalBalance())
}

// --- Atomicity under injected faults ---

func TestEngine_Atomicity_DebitFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.db.failUpdateBalanceAt.Store(1)

	err := f.execute("300.00")
	assertCode(t, err, "SYS_001")

	assert.True(t, f.db.balanceOf(f.sender.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.db.balanceOf(f.receiver.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.Zero(t, f.db.transferCount())
}

func TestEngine_Atomicity_CreditFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.db.failUpdateBalanceAt.Store(2)

	err := f.execute("300.00")
	assertCode(t, err, "SYS_001")

	assert.True(t, f.db.balanceOf(f.sender.ID).Equal(decimal.RequireFromString("1000.00")),
		"debit must not survive a failed credit")
	assert.True(t, f.db.balanceOf(f.receiver.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.Zero(t, f.db.transferCount())
}

func TestEngine_Atomicity_LedgerAppendFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.db.failLedgerAppend.Store(true)

	err := f.execute("300.00")
	assertCode(t, err, "SYS_001")

	assert.True(t, f.db.balanceOf(f.sender.ID).Equal(decimal.RequireFromString("1000.00")),
		"balance changes must not survive a failed ledger append")
	assert.Zero(t, f.db.transferCount())
}

func TestEngine_Atomicity_CommitFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.db.failCommit.Store(true)

	err := f.execute("300.00")
	assertCode(t, err, "SYS_001")

	assert.True(t, f.db.balanceOf(f.sender.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.Zero(t, f.db.transferCount())
}

func TestEngine_InconsistentState_RollbackFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.db.failUpdateBalanceAt.Store(2)
	f.db.failRollback.Store(true)

	err := f.execute("300.00")
	assertCode(t, err, "SYS_004")
}

// --- Audit completeness ---

// Every successful transfer, and only successful transfers, must appear in
// the ledger with amount and party ids intact.
func TestEngine_AuditCompleteness(t *testing.T) {
	f := newEngineFixture(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.execute("100.00"))
	}
	assertCode(t, f.execute("600.00"), "TRF_001") // would overdraw

	repo := &memTransferRepo{db: f.db}
	history, err := repo.ListByParty(context.Background(), f.sender.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)

	total := decimal.Zero
	for _, entry := range history {
		assert.Equal(t, f.sender.ID, entry.SenderID)
		assert.Equal(t, f.receiver.ID, entry.ReceiverID)
		total = total.Add(entry.Amount)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("500.00")),
		fmt.Sprintf("ledger total = %s", total))
	assert.True(t, f.db.balanceOf(f.sender.ID).Equal(decimal.RequireFromString("500.00")))
}
