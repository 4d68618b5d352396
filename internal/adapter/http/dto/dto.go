package dto

import (
	"github.com/google/uuid"

	"bank-ledger/internal/core/domain"
)

// OpenAccountRequest is the request body for opening an account.
type OpenAccountRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"required,email,max=255"`
}

// TransferRequest is the request body for executing a transfer.
// Amount travels as a string so no client or middlebox can round it.
type TransferRequest struct {
	ReceiverEmail string `json:"receiver_email" binding:"required,email,max=255"`
	Amount        string `json:"amount" binding:"required,money"`
	Note          string `json:"note,omitempty"`
}

// AccountResponse is the response body for account creation.
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// LedgerEntryResponse is one row of an account's activity view.
type LedgerEntryResponse struct {
	ID           string `json:"id"`
	Direction    string `json:"direction"` // "sent" or "received"
	Counterparty string `json:"counterparty"`
	Amount       string `json:"amount"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// LedgerResponse wraps a list of entries, newest first.
type LedgerResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Count int                   `json:"count"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// ToAccountResponse converts a domain account to its DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		Email:     a.Email,
		Balance:   a.Balance.StringFixed(domain.MoneyScale),
		CreatedAt: a.CreatedAt.Format(timeFormat),
	}
}

// ToTransferResponse converts a domain transfer to its DTO.
func ToTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:         t.ID.String(),
		SenderID:   t.SenderID.String(),
		ReceiverID: t.ReceiverID.String(),
		Amount:     t.Amount.StringFixed(domain.MoneyScale),
		Note:       t.Note,
		CreatedAt:  t.CreatedAt.Format(timeFormat),
	}
}

// ToLedgerResponse renders transfers from the viewpoint of accountID.
func ToLedgerResponse(accountID uuid.UUID, transfers []domain.Transfer) LedgerResponse {
	items := make([]LedgerEntryResponse, 0, len(transfers))
	for i := range transfers {
		t := &transfers[i]
		entry := LedgerEntryResponse{
			ID:        t.ID.String(),
			Amount:    t.Amount.StringFixed(domain.MoneyScale),
			Note:      t.Note,
			CreatedAt: t.CreatedAt.Format(timeFormat),
		}
		if t.SenderID == accountID {
			entry.Direction = "sent"
			entry.Counterparty = t.ReceiverName
		} else {
			entry.Direction = "received"
			entry.Counterparty = t.SenderName
		}
		items = append(items, entry)
	}
	return LedgerResponse{Items: items, Count: len(items)}
}
