package postgres

import (
	"context"
	"testing"
	"time"

	"bank-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer() *domain.Transfer {
	return &domain.Transfer{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Amount:     decimal.RequireFromString("300.00"),
		Note:       "rent",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transferColumns() []string {
	return []string{"id", "sender_id", "receiver_id", "amount", "note", "created_at", "sender_name", "receiver_name"}
}

func transferRow(tr *domain.Transfer) *pgxmock.Rows {
	return pgxmock.NewRows(transferColumns()).AddRow(
		tr.ID, tr.SenderID, tr.ReceiverID, tr.Amount, tr.Note, tr.CreatedAt,
		tr.SenderName, tr.ReceiverName,
	)
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(tr.ID, tr.SenderID, tr.ReceiverID, tr.Amount, tr.Note, tr.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, tr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()
	tr.SenderName = "Asha Rao"
	tr.ReceiverName = "Ben Okafor"

	mock.ExpectQuery("SELECT .+ FROM transfers t").
		WithArgs(tr.ID).
		WillReturnRows(transferRow(tr))

	result, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.ID, result.ID)
	assert.Equal(t, "Asha Rao", result.SenderName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transfers t").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(transferColumns()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransferRepo_ListByParty_Limited(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	accountID := uuid.New()

	tr1 := newTestTransfer()
	tr1.SenderID = accountID
	tr2 := newTestTransfer()
	tr2.ReceiverID = accountID

	rows := pgxmock.NewRows(transferColumns()).
		AddRow(tr1.ID, tr1.SenderID, tr1.ReceiverID, tr1.Amount, tr1.Note, tr1.CreatedAt, "", "").
		AddRow(tr2.ID, tr2.SenderID, tr2.ReceiverID, tr2.Amount, tr2.Note, tr2.CreatedAt, "", "")

	mock.ExpectQuery("SELECT .+ FROM transfers t .+ ORDER BY t.created_at DESC, t.id DESC LIMIT").
		WithArgs(accountID, int32(8)).
		WillReturnRows(rows)

	result, err := repo.ListByParty(context.Background(), accountID, 8)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, tr1.ID, result[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_ListByParty_FullHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	accountID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transfers t .+ ORDER BY t.created_at DESC, t.id DESC$").
		WithArgs(accountID).
		WillReturnRows(pgxmock.NewRows(transferColumns()))

	result, err := repo.ListByParty(context.Background(), accountID, 0)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
