package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable is returned when the provider cannot be reached or the
// circuit breaker is open. Callers treat it as retryable.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// ErrReferenceNotFound is returned by VerifyTransaction for unknown references.
var ErrReferenceNotFound = errors.New("payment reference not found")

type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
	StatusPending   Status = "pending"
)

// Metadata keys attached to every tip payment so that a webhook for a reference
// we never stored can still be attributed to a creator.
const (
	MetaCreatorID     = "creator_id"
	MetaSupporterName = "supporter_name"
	MetaMessage       = "message"
)

type InitializeRequest struct {
	Reference   string
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResponse struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type VerifyResponse struct {
	Reference   string
	Status      Status
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	PaidAt      *time.Time
}

type Provider interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider returned %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the error is on the provider's side.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
