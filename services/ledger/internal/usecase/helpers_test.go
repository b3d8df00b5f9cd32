package usecase

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"tiktip/pkg/logger"
	"tiktip/pkg/payment"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/notifier"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.LedgerEvent
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Publish(ctx context.Context, event entity.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type countingProvider struct {
	*payment.StubProvider
	initCalls   atomic.Int32
	verifyCalls atomic.Int32
	initErr     error
	initDelay   time.Duration
}

func newCountingProvider() *countingProvider {
	return &countingProvider{StubProvider: payment.NewStubProvider()}
}

func (p *countingProvider) InitializeTransaction(ctx context.Context, req payment.InitializeRequest) (*payment.InitializeResponse, error) {
	p.initCalls.Add(1)
	if p.initDelay > 0 {
		time.Sleep(p.initDelay)
	}
	if p.initErr != nil {
		return nil, p.initErr
	}
	return p.StubProvider.InitializeTransaction(ctx, req)
}

func (p *countingProvider) VerifyTransaction(ctx context.Context, reference string) (*payment.VerifyResponse, error) {
	p.verifyCalls.Add(1)
	return p.StubProvider.VerifyTransaction(ctx, reference)
}

type fixture struct {
	repo       *fakeLedgerRepo
	provider   *countingProvider
	publisher  *recordingPublisher
	ledger     LedgerUseCase
	payments   PaymentUseCase
	withdraws  WithdrawalUseCase
	reconciler ReconcileUseCase
}

func newFixture() *fixture {
	log := logger.NewWithWriter(io.Discard)
	repo := newFakeLedgerRepo()
	provider := newCountingProvider()
	publisher := &recordingPublisher{}
	dispatcher := notifier.NewDispatcher(publisher, time.Second, log)

	ledger := NewLedgerUseCase(repo, dispatcher, log)
	return &fixture{
		repo:       repo,
		provider:   provider,
		publisher:  publisher,
		ledger:     ledger,
		payments:   NewPaymentUseCase(repo, provider, dispatcher, PaymentConfig{Currency: "NGN", IdempotencyKeyMin: 8}, log),
		withdraws:  NewWithdrawalUseCase(ledger, repo, dispatcher, log),
		reconciler: NewReconcileUseCase(repo, log),
	}
}
