package handler

import (
	"bank-ledger/internal/adapter/http/dto"
	"bank-ledger/internal/adapter/http/middleware"
	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account-related endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.Open(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAccountResponse(account))
}

// GetBalance handles GET /api/v1/accounts/me/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrActorRequired())
		return
	}

	account, err := h.accountSvc.GetBalance(c.Request.Context(), accountID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		AccountID: account.ID.String(),
		Balance:   account.Balance.StringFixed(domain.MoneyScale),
	})
}
