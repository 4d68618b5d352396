package handler

import (
	"strconv"

	"bank-ledger/internal/adapter/http/dto"
	"bank-ledger/internal/adapter/http/middleware"
	"bank-ledger/internal/core/ports"
	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles the read-only activity endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Recent handles GET /api/v1/ledger/recent.
// An optional ?limit= overrides the default window size.
func (h *LedgerHandler) Recent(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrActorRequired())
		return
	}

	var limit int32
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = int32(parsed)
	}

	id := accountID.(uuid.UUID)
	transfers, err := h.ledgerSvc.RecentActivity(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToLedgerResponse(id, transfers))
}

// History handles GET /api/v1/ledger/history.
func (h *LedgerHandler) History(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrActorRequired())
		return
	}

	id := accountID.(uuid.UUID)
	transfers, err := h.ledgerSvc.FullHistory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToLedgerResponse(id, transfers))
}
