package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL       = 24 * time.Hour
	maxIdempotencyKeyLen = 100

	// Postgres error codes the engine treats as retryable conflicts.
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TransferServiceImpl implements ports.TransferService. It owns the atomic
// unit spanning the sender debit, the receiver credit and the ledger append:
// all three commit together or none does.
type TransferServiceImpl struct {
	accountRepo  ports.AccountRepository
	transferRepo ports.TransferRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	transactor   ports.DBTransactor
	maxNoteLen   int
	lockTimeout  time.Duration
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	accountRepo ports.AccountRepository,
	transferRepo ports.TransferRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	maxNoteLen int,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		transactor:   transactor,
		maxNoteLen:   maxNoteLen,
		lockTimeout:  lockTimeout,
		log:          log,
	}
}

// Execute validates and commits a transfer with pessimistic row locking.
// Validation failures return before any side effect; once balances are
// touched, every failure path rolls the whole unit back.
func (s *TransferServiceImpl) Execute(ctx context.Context, req ports.ExecuteRequest) (*domain.Transfer, error) {
	idempKey, err := s.resolveIdempotencyKey(req)
	if err != nil {
		return nil, err
	}
	if idempKey != "" {
		if cached, err := s.lookupIdempotent(ctx, idempKey); err != nil || cached != nil {
			return cached, err
		}
	}

	// Resolve the receiver lookup key to an account.
	receiver, err := s.accountRepo.GetByEmail(ctx, normalizeEmail(req.ReceiverEmail))
	if err != nil {
		return nil, s.mapStorageError(fmt.Errorf("resolve receiver: %w", err))
	}
	if receiver == nil {
		return nil, apperror.ErrReceiverNotFound()
	}
	if receiver.ID == req.SenderID {
		return nil, apperror.ErrSelfTransfer()
	}

	if !req.Amount.IsPositive() || !domain.ExactAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if utf8.RuneCountInString(req.Note) > s.maxNoteLen {
		return nil, apperror.ErrNoteTooLong(s.maxNoteLen)
	}

	// Begin the atomic unit of work.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, s.mapStorageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both rows in ascending account-id order regardless of transfer
	// direction, so opposite-direction transfers cannot deadlock.
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	firstID, secondID := orderedIDs(req.SenderID, receiver.ID)
	first, err := s.accountRepo.GetByIDForUpdate(lockCtx, dbTx, firstID)
	if err != nil {
		return nil, s.mapStorageError(fmt.Errorf("lock account %s: %w", firstID, err))
	}
	second, err := s.accountRepo.GetByIDForUpdate(lockCtx, dbTx, secondID)
	if err != nil {
		return nil, s.mapStorageError(fmt.Errorf("lock account %s: %w", secondID, err))
	}

	sender, locked := first, second
	if firstID != req.SenderID {
		sender, locked = second, first
	}
	if sender == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if locked == nil {
		return nil, apperror.ErrReceiverNotFound()
	}

	// Sufficiency check against the locked row, at the moment of commit.
	if !sender.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: locked.ID,
		Amount:     req.Amount,
		Note:       req.Note,
		CreatedAt:  now,
	}

	// From here the unit is partially applied; every failure goes through
	// abort so the debit and credit never survive on their own.
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, sender.ID, sender.Balance.Sub(req.Amount)); err != nil {
		return nil, s.abort(ctx, dbTx, fmt.Errorf("debit sender: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, locked.ID, locked.Balance.Add(req.Amount)); err != nil {
		return nil, s.abort(ctx, dbTx, fmt.Errorf("credit receiver: %w", err))
	}
	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, s.abort(ctx, dbTx, fmt.Errorf("append ledger record: %w", err))
	}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(transfer)
		if err != nil {
			return nil, s.abort(ctx, dbTx, fmt.Errorf("marshal response: %w", err))
		}
		idempLog := &domain.IdempotencyLog{
			Key:          idempKey,
			TransferID:   transfer.ID,
			ResponseJSON: respJSON,
			CreatedAt:    now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, idempLog); err != nil {
			return nil, s.abort(ctx, dbTx, fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.mapStorageError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: cache in Redis (best-effort).
	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("sender_id", sender.ID.String()).
		Str("receiver_id", locked.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer committed")

	return transfer, nil
}

// resolveIdempotencyKey validates and scopes the optional client key.
func (s *TransferServiceImpl) resolveIdempotencyKey(req ports.ExecuteRequest) (string, error) {
	if req.IdempotencyKey == "" {
		return "", nil
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		return "", apperror.ErrIdempotencyKeyTooLong()
	}
	return domain.BuildIdempotencyKey(req.SenderID, req.IdempotencyKey), nil
}

// lookupIdempotent checks the Redis fast path, then the durable log.
// Returns the original transfer for a repeated key, or nil on a miss.
func (s *TransferServiceImpl) lookupIdempotent(ctx context.Context, idempKey string) (*domain.Transfer, error) {
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransfer(cached)
	}

	idempLog, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return nil, s.mapStorageError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransfer(idempLog.ResponseJSON)
	}
	return nil, nil
}

// abort rolls a partially applied unit back before surfacing err. If the
// rollback itself fails, balance correctness can no longer be asserted and
// the distinct inconsistent-state condition is surfaced instead.
func (s *TransferServiceImpl) abort(ctx context.Context, tx pgx.Tx, err error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		s.log.Error().Err(rbErr).AnErr("cause", err).Msg("rollback failed after partial apply")
		return apperror.ErrInconsistentState(errors.Join(err, rbErr))
	}
	return s.mapStorageError(err)
}

// mapStorageError classifies low-level failures into the engine's taxonomy:
// lock waits that ran out the clock, conflicts the database asked us to
// retry, and everything else as a storage failure.
func (s *TransferServiceImpl) mapStorageError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrLockTimeout(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return apperror.ErrConcurrencyConflict(err)
		}
	}
	return apperror.ErrStorageFailure(err)
}

// orderedIDs returns the two account ids in ascending byte order.
func orderedIDs(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unmarshalCachedTransfer(data []byte) (*domain.Transfer, error) {
	transfer := &domain.Transfer{}
	if err := json.Unmarshal(data, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transfer: %w", err))
	}
	return transfer, nil
}
