package http

import (
	"net/http"

	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	ledgerUseCase     usecase.LedgerUseCase
	withdrawalUseCase usecase.WithdrawalUseCase
	reconcileUseCase  usecase.ReconcileUseCase
	logger            *logger.Logger
}

func NewAdminHandler(ledgerUseCase usecase.LedgerUseCase, withdrawalUseCase usecase.WithdrawalUseCase, reconcileUseCase usecase.ReconcileUseCase, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		ledgerUseCase:     ledgerUseCase,
		withdrawalUseCase: withdrawalUseCase,
		reconcileUseCase:  reconcileUseCase,
		logger:            logger,
	}
}

type CreateCreatorRequest struct {
	Username    string `json:"username" binding:"required,min=2,max=64"`
	DisplayName string `json:"display_name" binding:"max=128"`
}

type DeclineRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type DeclineResponse struct {
	Withdrawal TransactionResponse `json:"withdrawal"`
	Refund     TransactionResponse `json:"refund"`
}

type ReconcileResponse struct {
	CreatorID                string `json:"creator_id"`
	StoredTotalEarnings      string `json:"stored_total_earnings"`
	StoredAvailableBalance   string `json:"stored_available_balance"`
	ComputedTotalEarnings    string `json:"computed_total_earnings"`
	ComputedAvailableBalance string `json:"computed_available_balance"`
	Drift                    bool   `json:"drift"`
	Repaired                 bool   `json:"repaired"`
}

// CreateCreator godoc
// @Summary      Create creator
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCreatorRequest true "Creator"
// @Success      201  {object}  CreatorProfileResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/creators [post]
func (h *AdminHandler) CreateCreator(c *gin.Context) {
	var req CreateCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	creator, err := h.ledgerUseCase.CreateCreator(c.Request.Context(), req.Username, req.DisplayName)
	if err != nil {
		respondError(c, h.logger, "create creator", err)
		return
	}
	c.JSON(http.StatusCreated, toProfile(creator))
}

// ListPendingWithdrawals godoc
// @Summary      Pending withdrawals
// @Description  Oldest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/withdrawals/pending [get]
func (h *AdminHandler) ListPendingWithdrawals(c *gin.Context) {
	limit, offset := pagination(c)

	withdrawals, err := h.withdrawalUseCase.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, "list pending withdrawals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": toTransactions(withdrawals), "count": len(withdrawals)})
}

// ApproveWithdrawal godoc
// @Summary      Approve withdrawal
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Withdrawal transaction ID"
// @Success      200  {object}  TransactionResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/withdrawals/{id}/approve [post]
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	tx, err := h.withdrawalUseCase.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "approve withdrawal", err)
		return
	}
	c.JSON(http.StatusOK, toTransaction(tx))
}

// DeclineWithdrawal godoc
// @Summary      Decline withdrawal
// @Description  Marks the withdrawal failed and refunds the held amount
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Withdrawal transaction ID"
// @Param        request body DeclineRequest false "Reason"
// @Success      200  {object}  DeclineResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/withdrawals/{id}/decline [post]
func (h *AdminHandler) DeclineWithdrawal(c *gin.Context) {
	var req DeclineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	withdrawal, refund, err := h.withdrawalUseCase.Decline(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, "decline withdrawal", err)
		return
	}
	c.JSON(http.StatusOK, DeclineResponse{Withdrawal: toTransaction(withdrawal), Refund: toTransaction(refund)})
}

// CheckBalances godoc
// @Summary      Check creator balances
// @Description  Compares stored balances with the sums of the creator's ledger rows
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Creator ID"
// @Success      200  {object}  ReconcileResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/creators/{id}/reconcile [get]
func (h *AdminHandler) CheckBalances(c *gin.Context) {
	report, err := h.reconcileUseCase.Check(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "check balances", err)
		return
	}
	c.JSON(http.StatusOK, toReconcile(report))
}

// RepairBalances godoc
// @Summary      Repair creator balances
// @Description  Rewrites drifted balances from the ledger rows
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Creator ID"
// @Success      200  {object}  ReconcileResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/creators/{id}/reconcile [post]
func (h *AdminHandler) RepairBalances(c *gin.Context) {
	report, err := h.reconcileUseCase.Repair(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "repair balances", err)
		return
	}
	c.JSON(http.StatusOK, toReconcile(report))
}

func toReconcile(report *usecase.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{
		CreatorID:                report.CreatorID,
		StoredTotalEarnings:      report.Stored.TotalEarnings.StringFixed(2),
		StoredAvailableBalance:   report.Stored.AvailableBalance.StringFixed(2),
		ComputedTotalEarnings:    report.Computed.TotalEarnings.StringFixed(2),
		ComputedAvailableBalance: report.Computed.AvailableBalance.StringFixed(2),
		Drift:                    report.Drift(),
		Repaired:                 report.Repaired,
	}
}
