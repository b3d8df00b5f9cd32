package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tiktip/pkg/logger"
	"tiktip/pkg/payment"
	"tiktip/services/ledger/internal/entity"

	"github.com/gin-gonic/gin"
)

type CreatorProfileResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type EarningsResponse struct {
	CreatorID        string `json:"creator_id"`
	TotalEarnings    string `json:"total_earnings"`
	AvailableBalance string `json:"available_balance"`
}

type TransactionResponse struct {
	ID               string    `json:"id"`
	CreatorID        string    `json:"creator_id"`
	Amount           string    `json:"amount"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	SupporterName    string    `json:"supporter_name,omitempty"`
	Message          string    `json:"message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toProfile(c *entity.Creator) CreatorProfileResponse {
	return CreatorProfileResponse{ID: c.ID, Username: c.Username, DisplayName: c.DisplayName}
}

func toEarnings(c *entity.Creator) EarningsResponse {
	return EarningsResponse{
		CreatorID:        c.ID,
		TotalEarnings:    c.TotalEarnings.StringFixed(2),
		AvailableBalance: c.AvailableBalance.StringFixed(2),
	}
}

func toTransaction(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		CreatorID:        t.CreatorID,
		Amount:           t.Amount.StringFixed(2),
		Type:             string(t.Type),
		Status:           string(t.Status),
		PaymentReference: t.Reference(),
		SupporterName:    t.SupporterName,
		Message:          t.Message,
		CreatedAt:        t.CreatedAt,
	}
}

func toTransactions(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransaction(t)
	}
	return out
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrInvalidIdempotencyKey),
		errors.Is(err, entity.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrCreatorNotFound),
		errors.Is(err, entity.ErrTransactionNotFound),
		errors.Is(err, entity.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrPaymentInProgress),
		errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrCreatorExists):
		return http.StatusConflict
	case errors.Is(err, payment.ErrProviderUnavailable):
		return http.StatusBadGateway
	}
	var apiErr *payment.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, log *logger.Logger, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Failed to %s: %v", action, err)
		if status == http.StatusInternalServerError {
			c.JSON(status, ErrorResponse{Error: "Failed to " + action})
			return
		}
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
