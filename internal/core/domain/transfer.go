package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is an immutable ledger entry describing one completed movement
// of funds. Records are only ever appended; nothing updates or deletes them.
type Transfer struct {
	ID         uuid.UUID       `json:"id"`
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID uuid.UUID       `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"` // assigned at commit time by the engine

	// Display names joined from the accounts table on reads. Empty on the
	// write path.
	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// Involves reports whether the given account took part in the transfer.
func (t *Transfer) Involves(accountID uuid.UUID) bool {
	return t.SenderID == accountID || t.ReceiverID == accountID
}

// CounterpartyOf returns the other party of the transfer relative to
// accountID. Callers must ensure Involves(accountID) holds.
func (t *Transfer) CounterpartyOf(accountID uuid.UUID) uuid.UUID {
	if t.SenderID == accountID {
		return t.ReceiverID
	}
	return t.SenderID
}
