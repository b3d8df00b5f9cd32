package http

import (
	"errors"
	"io"
	"net/http"

	"tiktip/pkg/logger"
	"tiktip/pkg/payment"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	paymentUseCase usecase.PaymentUseCase
	secret         string
	logger         *logger.Logger
}

func NewWebhookHandler(paymentUseCase usecase.PaymentUseCase, secret string, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		paymentUseCase: paymentUseCase,
		secret:         secret,
		logger:         logger,
	}
}

// Paystack godoc
// @Summary      Paystack webhook
// @Description  Receives signed payment events. Duplicate deliveries are acknowledged without effect.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        x-paystack-signature header string true "HMAC-SHA512 of the body"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  ErrorResponse
// @Router       /webhooks/paystack [post]
func (h *WebhookHandler) Paystack(c *gin.Context) {
	if c.Request.Body == nil {
		c.Request.Body = http.NoBody
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read body"})
		return
	}

	if !payment.VerifySignature(h.secret, body, c.GetHeader(payment.SignatureHeader)) {
		h.logger.Warn("[WEBHOOK] Rejected Paystack event with invalid signature from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid signature"})
		return
	}

	event, err := payment.ParsePaystackEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	_, err = h.paymentUseCase.HandleWebhook(c.Request.Context(), usecase.WebhookEvent{
		Event:   event.Event,
		Payment: *event.Data.ToVerifyResponse(),
	})
	if err != nil {
		if isPermanent(err) {
			// redelivery cannot succeed, so acknowledge it
			h.logger.Warn("[WEBHOOK] Dropping %s for %s: %v", event.Event, event.Data.Reference, err)
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		// non-2xx makes the provider redeliver, which is safe
		h.logger.Error("[WEBHOOK] Failed to process %s for %s: %v", event.Event, event.Data.Reference, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isPermanent(err error) bool {
	return errors.Is(err, entity.ErrUnknownReference) ||
		errors.Is(err, entity.ErrCreatorNotFound) ||
		errors.Is(err, entity.ErrInvalidAmount) ||
		errors.Is(err, entity.ErrInvalidTransition) ||
		errors.Is(err, entity.ErrTransactionNotFound)
}
