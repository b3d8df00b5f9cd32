package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PaystackProvider talks to the Paystack transaction API.
type PaystackProvider struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewPaystackProvider(baseURL, secretKey string, timeout time.Duration) *PaystackProvider {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PaystackProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeReq struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// PaystackTransaction is the transaction object shared by the verify endpoint
// and charge webhooks.
type PaystackTransaction struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

// PaystackEvent is the webhook body.
type PaystackEvent struct {
	Event string              `json:"event"`
	Data  PaystackTransaction `json:"data"`
}

func (p *PaystackProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(paystackInitializeReq{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var data paystackInitializeData
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("paystack initialize: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack initialize: empty authorization url")
	}

	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &InitializeResponse{
		Reference:        ref,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (p *PaystackProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	var data PaystackTransaction
	err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	return data.ToVerifyResponse(), nil
}

func (p *PaystackProvider) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		status := resp.StatusCode
		if status < 300 {
			status = http.StatusBadRequest
		}
		return &APIError{StatusCode: status, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// ParsePaystackEvent decodes a webhook body. Signature checks happen before this.
func ParsePaystackEvent(body []byte) (*PaystackEvent, error) {
	var ev PaystackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if ev.Event == "" {
		return nil, errors.New("invalid webhook payload: missing event")
	}
	return &ev, nil
}

func (t *PaystackTransaction) ToVerifyResponse() *VerifyResponse {
	return &VerifyResponse{
		Reference:   t.Reference,
		Status:      normalizeStatus(t.Status),
		AmountMinor: t.Amount,
		Currency:    t.Currency,
		Metadata:    decodeMetadata(t.Metadata),
		PaidAt:      t.PaidAt,
	}
}

func normalizeStatus(s string) Status {
	switch strings.ToLower(s) {
	case "success":
		return StatusSuccess
	case "failed", "reversed":
		return StatusFailed
	case "abandoned":
		return StatusAbandoned
	default:
		return StatusPending
	}
}

// decodeMetadata accepts the object form as well as the empty string or
// JSON-encoded string Paystack sends back for some integrations.
func decodeMetadata(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return out
		}
		raw = json.RawMessage(asString)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return out
	}
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
