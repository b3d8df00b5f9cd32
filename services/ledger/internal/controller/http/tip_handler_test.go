package http

import (
	"net/http"
	"testing"

	"tiktip/pkg/logger"
	"tiktip/pkg/payment"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTipRouter(ledger *MockLedgerUseCase, payments *MockPaymentUseCase) *gin.Engine {
	h := NewTipHandler(ledger, payments, logger.New())
	r := setupTestRouter()
	r.GET("/creators/:username", h.GetCreatorProfile)
	r.POST("/tips/initiate", h.InitiateTip)
	r.GET("/tips/verify/:reference", h.VerifyTip)
	return r
}

func validTipBody() map[string]interface{} {
	return map[string]interface{}{
		"creator_id":      testCreatorID,
		"amount":          "25.50",
		"idempotency_key": "checkout-0001",
		"supporter_name":  "Ada",
	}
}

func TestGetCreatorProfile(t *testing.T) {
	ledger := new(MockLedgerUseCase)
	ledger.On("GetCreatorByUsername", mock.Anything, "@ada").
		Return(&entity.Creator{ID: testCreatorID, Username: "ada", DisplayName: "Ada L"}, nil)
	ledger.On("GetCreatorByUsername", mock.Anything, "ghost").Return(nil, entity.ErrCreatorNotFound)

	r := newTipRouter(ledger, new(MockPaymentUseCase))

	w := doJSON(r, http.MethodGet, "/creators/@ada", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ada", body["username"])
	assert.NotContains(t, body, "available_balance")

	w = doJSON(r, http.MethodGet, "/creators/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInitiateTip_Created(t *testing.T) {
	payments := new(MockPaymentUseCase)
	payments.On("InitiateTip", mock.Anything, mock.MatchedBy(func(in usecase.InitiateTipInput) bool {
		return in.CreatorID == testCreatorID &&
			in.Amount.Equal(decimal.RequireFromString("25.50")) &&
			in.IdempotencyKey == "checkout-0001" &&
			in.SupporterName == "Ada"
	})).Return(&usecase.InitiateTipResult{
		Transaction:      sampleTip(entity.TransactionStatusPending),
		AuthorizationURL: "https://checkout.example/tip_abc",
	}, nil)

	r := newTipRouter(new(MockLedgerUseCase), payments)
	w := doJSON(r, http.MethodPost, "/tips/initiate", validTipBody(), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "tip_abc", body["reference"])
	assert.Equal(t, "https://checkout.example/tip_abc", body["authorization_url"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, false, body["reused"])
	payments.AssertExpectations(t)
}

func TestInitiateTip_ReusedReturnsOK(t *testing.T) {
	payments := new(MockPaymentUseCase)
	payments.On("InitiateTip", mock.Anything, mock.Anything).Return(&usecase.InitiateTipResult{
		Transaction:      sampleTip(entity.TransactionStatusPending),
		AuthorizationURL: "https://checkout.example/tip_abc",
		Reused:           true,
	}, nil)

	r := newTipRouter(new(MockLedgerUseCase), payments)
	w := doJSON(r, http.MethodPost, "/tips/initiate", validTipBody(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["reused"])
}

func TestInitiateTip_KeyFromHeader(t *testing.T) {
	payments := new(MockPaymentUseCase)
	payments.On("InitiateTip", mock.Anything, mock.MatchedBy(func(in usecase.InitiateTipInput) bool {
		return in.IdempotencyKey == "header-key-42"
	})).Return(&usecase.InitiateTipResult{Transaction: sampleTip(entity.TransactionStatusPending)}, nil)

	body := validTipBody()
	delete(body, "idempotency_key")

	r := newTipRouter(new(MockLedgerUseCase), payments)
	w := doJSON(r, http.MethodPost, "/tips/initiate", body, map[string]string{IdempotencyKeyHeader: "header-key-42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	payments.AssertExpectations(t)
}

func TestInitiateTip_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"zero amount", func(b map[string]interface{}) { b["amount"] = "0" }},
		{"negative amount", func(b map[string]interface{}) { b["amount"] = "-5.00" }},
		{"three decimals", func(b map[string]interface{}) { b["amount"] = "1.234" }},
		{"amount beyond column range", func(b map[string]interface{}) { b["amount"] = "1000000000000.00" }},
		{"missing key", func(b map[string]interface{}) { delete(b, "idempotency_key") }},
		{"short key", func(b map[string]interface{}) { b["idempotency_key"] = "abc" }},
		{"bad creator id", func(b map[string]interface{}) { b["creator_id"] = "not-a-uuid" }},
		{"bad email", func(b map[string]interface{}) { b["email"] = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentUseCase)
			r := newTipRouter(new(MockLedgerUseCase), payments)

			body := validTipBody()
			tt.mutate(body)
			w := doJSON(r, http.MethodPost, "/tips/initiate", body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			payments.AssertNotCalled(t, "InitiateTip", mock.Anything, mock.Anything)
		})
	}
}

func TestInitiateTip_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"creator missing", entity.ErrCreatorNotFound, http.StatusNotFound},
		{"in progress", entity.ErrPaymentInProgress, http.StatusConflict},
		{"gateway down", payment.ErrProviderUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentUseCase)
			payments.On("InitiateTip", mock.Anything, mock.Anything).Return(nil, tt.err)

			r := newTipRouter(new(MockLedgerUseCase), payments)
			w := doJSON(r, http.MethodPost, "/tips/initiate", validTipBody(), nil)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestVerifyTip(t *testing.T) {
	payments := new(MockPaymentUseCase)
	payments.On("Verify", mock.Anything, "tip_abc").Return(&usecase.CompletionResult{
		Transaction: sampleTip(entity.TransactionStatusCompleted),
		Applied:     true,
	}, nil)
	payments.On("Verify", mock.Anything, "tip_missing").Return(nil, entity.ErrUnknownReference)

	r := newTipRouter(new(MockLedgerUseCase), payments)

	w := doJSON(r, http.MethodGet, "/tips/verify/tip_abc", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["applied"])
	assert.Equal(t, "completed", body["transaction"].(map[string]interface{})["status"])
	assert.Equal(t, "25.50", body["transaction"].(map[string]interface{})["amount"])

	w = doJSON(r, http.MethodGet, "/tips/verify/tip_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
