package http

import (
	"net/http"

	"tiktip/pkg/logger"
	"tiktip/pkg/middleware"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreatorHandler struct {
	ledgerUseCase     usecase.LedgerUseCase
	withdrawalUseCase usecase.WithdrawalUseCase
	logger            *logger.Logger
}

func NewCreatorHandler(ledgerUseCase usecase.LedgerUseCase, withdrawalUseCase usecase.WithdrawalUseCase, logger *logger.Logger) *CreatorHandler {
	return &CreatorHandler{
		ledgerUseCase:     ledgerUseCase,
		withdrawalUseCase: withdrawalUseCase,
		logger:            logger,
	}
}

type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,money"`
	Note   string          `json:"note" binding:"max=500"`
}

// GetEarnings godoc
// @Summary      Get earnings
// @Description  Balances of the authenticated creator
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  EarningsResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me/earnings [get]
func (h *CreatorHandler) GetEarnings(c *gin.Context) {
	creator, err := h.ledgerUseCase.GetCreator(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, "get earnings", err)
		return
	}
	c.JSON(http.StatusOK, toEarnings(creator))
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  Ledger history of the authenticated creator, newest first
// @Tags         creator
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "tip, withdrawal or refund"
// @Param        status query string false "pending, completed or failed"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /me/transactions [get]
func (h *CreatorHandler) ListTransactions(c *gin.Context) {
	var filter entity.TransactionFilter
	if v := c.Query("type"); v != "" {
		kind, err := entity.ParseTransactionType(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		filter.Type = kind
	}
	if v := c.Query("status"); v != "" {
		status, err := entity.ParseTransactionStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		filter.Status = status
	}
	limit, offset := pagination(c)

	transactions, total, err := h.ledgerUseCase.ListTransactions(c.Request.Context(), c.GetString(middleware.ContextUserID), filter, limit, offset)
	if err != nil {
		respondError(c, h.logger, "list transactions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": toTransactions(transactions),
		"count":        len(transactions),
		"total":        total,
		"offset":       offset,
	})
}

// RequestWithdrawal godoc
// @Summary      Request a withdrawal
// @Description  Holds the amount from the available balance until an admin approves or declines
// @Tags         creator
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body WithdrawalRequest true "Withdrawal"
// @Success      201  {object}  TransactionResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /me/withdrawals [post]
func (h *CreatorHandler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tx, err := h.withdrawalUseCase.Request(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Amount, req.Note)
	if err != nil {
		respondError(c, h.logger, "request withdrawal", err)
		return
	}
	c.JSON(http.StatusCreated, toTransaction(tx))
}
