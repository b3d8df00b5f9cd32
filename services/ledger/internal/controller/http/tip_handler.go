package http

import (
	"net/http"

	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type TipHandler struct {
	ledgerUseCase  usecase.LedgerUseCase
	paymentUseCase usecase.PaymentUseCase
	logger         *logger.Logger
}

func NewTipHandler(ledgerUseCase usecase.LedgerUseCase, paymentUseCase usecase.PaymentUseCase, logger *logger.Logger) *TipHandler {
	return &TipHandler{
		ledgerUseCase:  ledgerUseCase,
		paymentUseCase: paymentUseCase,
		logger:         logger,
	}
}

type InitiateTipRequest struct {
	CreatorID      string          `json:"creator_id" binding:"required,uuid"`
	Amount         decimal.Decimal `json:"amount" binding:"required,money"`
	IdempotencyKey string          `json:"idempotency_key" binding:"required,idempotency_key"`
	SupporterName  string          `json:"supporter_name" binding:"max=100"`
	Message        string          `json:"message" binding:"max=500"`
	Email          string          `json:"email" binding:"omitempty,email"`
}

type InitiateTipResponse struct {
	TransactionID    string `json:"transaction_id"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	Status           string `json:"status"`
	Reused           bool   `json:"reused"`
}

type VerifyTipResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Applied     bool                `json:"applied"`
}

// GetCreatorProfile godoc
// @Summary      Get creator profile
// @Description  Public profile shown on the tipping page
// @Tags         tips
// @Produce      json
// @Param        username path string true "Creator username"
// @Success      200  {object}  CreatorProfileResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /creators/{username} [get]
func (h *TipHandler) GetCreatorProfile(c *gin.Context) {
	creator, err := h.ledgerUseCase.GetCreatorByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.logger, "get creator", err)
		return
	}
	c.JSON(http.StatusOK, toProfile(creator))
}

// InitiateTip godoc
// @Summary      Initiate a tip
// @Description  Starts a gateway payment. Retrying with the same idempotency key returns the first payment.
// @Tags         tips
// @Accept       json
// @Produce      json
// @Param        request body InitiateTipRequest true "Tip"
// @Success      201  {object}  InitiateTipResponse
// @Success      200  {object}  InitiateTipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /tips/initiate [post]
func (h *TipHandler) InitiateTip(c *gin.Context) {
	// a key in the body wins over the header
	req := InitiateTipRequest{IdempotencyKey: c.GetHeader(IdempotencyKeyHeader)}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.paymentUseCase.InitiateTip(c.Request.Context(), usecase.InitiateTipInput{
		CreatorID:      req.CreatorID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		SupporterName:  req.SupporterName,
		SupporterEmail: req.Email,
		Message:        req.Message,
	})
	if err != nil {
		respondError(c, h.logger, "initiate tip", err)
		return
	}

	status := http.StatusCreated
	if res.Reused {
		status = http.StatusOK
	}
	c.JSON(status, InitiateTipResponse{
		TransactionID:    res.Transaction.ID,
		Reference:        res.Transaction.Reference(),
		AuthorizationURL: res.AuthorizationURL,
		Status:           string(res.Transaction.Status),
		Reused:           res.Reused,
	})
}

// VerifyTip godoc
// @Summary      Verify a tip payment
// @Description  Pulls the payment state from the gateway and completes the tip if it succeeded
// @Tags         tips
// @Produce      json
// @Param        reference path string true "Payment reference"
// @Success      200  {object}  VerifyTipResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /tips/verify/{reference} [get]
func (h *TipHandler) VerifyTip(c *gin.Context) {
	res, err := h.paymentUseCase.Verify(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, "verify tip", err)
		return
	}
	c.JSON(http.StatusOK, VerifyTipResponse{Transaction: toTransaction(res.Transaction), Applied: res.Applied})
}
