package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memDB backs the in-memory repos with transactional semantics: writes made
// through a memTx stay staged until Commit and are discarded on Rollback.
// Begin takes a global lock, so transactions execute one at a time, which is
// the same observable behavior row locks give the real engine.
type memDB struct {
	txMu    sync.Mutex
	stateMu sync.RWMutex

	accounts  map[uuid.UUID]*domain.Account
	transfers []domain.Transfer
	idempLogs map[string]*domain.IdempotencyLog

	// Fault injection hooks.
	failUpdateBalanceAt atomic.Int32 // 1-based call number, 0 = never
	updateBalanceCalls  atomic.Int32
	failLedgerAppend    atomic.Bool
	failCommit          atomic.Bool
	failRollback        atomic.Bool
}

func newMemDB() *memDB {
	return &memDB{
		accounts:  make(map[uuid.UUID]*domain.Account),
		idempLogs: make(map[string]*domain.IdempotencyLog),
	}
}

// balanceOf returns the committed balance, for assertions.
func (db *memDB) balanceOf(id uuid.UUID) decimal.Decimal {
	db.stateMu.RLock()
	defer db.stateMu.RUnlock()
	return db.accounts[id].Balance
}

// totalBalance sums every committed balance, for conservation checks.
func (db *memDB) totalBalance() decimal.Decimal {
	db.stateMu.RLock()
	defer db.stateMu.RUnlock()
	total := decimal.Zero
	for _, a := range db.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

func (db *memDB) transferCount() int {
	db.stateMu.RLock()
	defer db.stateMu.RUnlock()
	return len(db.transfers)
}

// --- Transaction ---

// memTx stages writes until Commit. The embedded pgx.Tx is never called;
// it only satisfies the interface.
type memTx struct {
	pgx.Tx
	db       *memDB
	balances map[uuid.UUID]decimal.Decimal
	appended []domain.Transfer
	idemp    []domain.IdempotencyLog
	done     bool
}

func (t *memTx) finish() {
	t.done = true
	t.db.txMu.Unlock()
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	if t.db.failCommit.Load() {
		t.finish()
		return errors.New("injected commit failure")
	}

	t.db.stateMu.Lock()
	for id, balance := range t.balances {
		t.db.accounts[id].Balance = balance
	}
	t.db.transfers = append(t.db.transfers, t.appended...)
	for i := range t.idemp {
		log := t.idemp[i]
		t.db.idempLogs[log.Key] = &log
	}
	t.db.stateMu.Unlock()

	t.finish()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	if t.db.failRollback.Load() {
		t.finish()
		return errors.New("injected rollback failure")
	}
	t.finish()
	return nil
}

type memTransactor struct {
	db *memDB
}

func (t *memTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	t.db.txMu.Lock()
	return &memTx{
		db:       t.db,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

// --- Account Repo ---

type memAccountRepo struct {
	db *memDB
}

func (r *memAccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.db.stateMu.Lock()
	defer r.db.stateMu.Unlock()
	for _, existing := range r.db.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *a
	r.db.accounts[a.ID] = &cp
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.db.stateMu.RLock()
	defer r.db.stateMu.RUnlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.db.stateMu.RLock()
	defer r.db.stateMu.RUnlock()
	for _, a := range r.db.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	mtx := tx.(*memTx)
	r.db.stateMu.RLock()
	defer r.db.stateMu.RUnlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	if staged, ok := mtx.balances[id]; ok {
		cp.Balance = staged
	}
	return &cp, nil
}

func (r *memAccountRepo) UpdateBalance(_ context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	call := r.db.updateBalanceCalls.Add(1)
	if failAt := r.db.failUpdateBalanceAt.Load(); failAt != 0 && call == failAt {
		return errors.New("injected balance update failure")
	}
	mtx := tx.(*memTx)
	mtx.balances[id] = balance
	return nil
}

// --- Transfer Repo ---

type memTransferRepo struct {
	db *memDB
}

func (r *memTransferRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Transfer) error {
	if r.db.failLedgerAppend.Load() {
		return errors.New("injected ledger append failure")
	}
	mtx := tx.(*memTx)
	mtx.appended = append(mtx.appended, *t)
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transfer, error) {
	r.db.stateMu.RLock()
	defer r.db.stateMu.RUnlock()
	for i := range r.db.transfers {
		if r.db.transfers[i].ID == id {
			cp := r.db.transfers[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTransferRepo) ListByParty(_ context.Context, accountID uuid.UUID, limit int32) ([]domain.Transfer, error) {
	r.db.stateMu.RLock()
	var result []domain.Transfer
	for i := range r.db.transfers {
		t := r.db.transfers[i]
		if !t.Involves(accountID) {
			continue
		}
		if sender, ok := r.db.accounts[t.SenderID]; ok {
			t.SenderName = sender.Name
		}
		if receiver, ok := r.db.accounts[t.ReceiverID]; ok {
			t.ReceiverName = receiver.Name
		}
		result = append(result, t)
	}
	r.db.stateMu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	if limit > 0 && int(limit) < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// --- Idempotency Repo ---

type memIdempotencyRepo struct {
	db *memDB
}

func (r *memIdempotencyRepo) Create(_ context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	mtx := tx.(*memTx)
	mtx.idemp = append(mtx.idemp, *log)
	return nil
}

func (r *memIdempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	r.db.stateMu.RLock()
	defer r.db.stateMu.RUnlock()
	l, ok := r.db.idempLogs[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}
