package payment

import (
	"context"
	"sync"
	"time"
)

// StubProvider is an in-memory provider for development and tests. Every
// initialized payment verifies as successful.
type StubProvider struct {
	mu       sync.Mutex
	payments map[string]InitializeRequest
	statuses map[string]Status
}

func NewStubProvider() *StubProvider {
	return &StubProvider{
		payments: make(map[string]InitializeRequest),
		statuses: make(map[string]Status),
	}
}

func (s *StubProvider) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[req.Reference] = req
	return &InitializeResponse{
		Reference:        req.Reference,
		AuthorizationURL: "https://checkout.stub.local/pay/" + req.Reference,
		AccessCode:       "stub_" + req.Reference,
	}, nil
}

func (s *StubProvider) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.payments[reference]
	if !ok {
		return nil, ErrReferenceNotFound
	}
	status, ok := s.statuses[reference]
	if !ok {
		status = StatusSuccess
	}
	now := time.Now()
	return &VerifyResponse{
		Reference:   reference,
		Status:      status,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
		PaidAt:      &now,
	}, nil
}

// SetStatus overrides the status VerifyTransaction reports for a reference.
func (s *StubProvider) SetStatus(reference string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[reference] = status
}
