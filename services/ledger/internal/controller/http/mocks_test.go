package http

import (
	"context"

	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLedgerUseCase struct {
	mock.Mock
}

func (m *MockLedgerUseCase) Apply(ctx context.Context, creatorID string, amount decimal.Decimal, kind entity.TransactionType, opts usecase.ApplyOptions) (*entity.Transaction, error) {
	args := m.Called(ctx, creatorID, amount, kind, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockLedgerUseCase) GetCreator(ctx context.Context, id string) (*entity.Creator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Creator), args.Error(1)
}

func (m *MockLedgerUseCase) GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Creator), args.Error(1)
}

func (m *MockLedgerUseCase) CreateCreator(ctx context.Context, username, displayName string) (*entity.Creator, error) {
	args := m.Called(ctx, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Creator), args.Error(1)
}

func (m *MockLedgerUseCase) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockLedgerUseCase) ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	args := m.Called(ctx, creatorID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) FindExisting(ctx context.Context, creatorID, key string) (*entity.Transaction, error) {
	args := m.Called(ctx, creatorID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockPaymentUseCase) InitiateTip(ctx context.Context, input usecase.InitiateTipInput) (*usecase.InitiateTipResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.InitiateTipResult), args.Error(1)
}

func (m *MockPaymentUseCase) Complete(ctx context.Context, signal usecase.CompletionSignal) (*usecase.CompletionResult, error) {
	args := m.Called(ctx, signal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CompletionResult), args.Error(1)
}

func (m *MockPaymentUseCase) Verify(ctx context.Context, reference string) (*usecase.CompletionResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CompletionResult), args.Error(1)
}

func (m *MockPaymentUseCase) HandleWebhook(ctx context.Context, event usecase.WebhookEvent) (*usecase.CompletionResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CompletionResult), args.Error(1)
}

func (m *MockPaymentUseCase) MarkFailed(ctx context.Context, reference string) (*entity.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

type MockWithdrawalUseCase struct {
	mock.Mock
}

func (m *MockWithdrawalUseCase) Request(ctx context.Context, creatorID string, amount decimal.Decimal, note string) (*entity.Transaction, error) {
	args := m.Called(ctx, creatorID, amount, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockWithdrawalUseCase) Approve(ctx context.Context, id string) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockWithdrawalUseCase) Decline(ctx context.Context, id, reason string) (*entity.Transaction, *entity.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.Transaction), args.Get(1).(*entity.Transaction), args.Error(2)
}

func (m *MockWithdrawalUseCase) ListPending(ctx context.Context, limit, offset int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}

type MockReconcileUseCase struct {
	mock.Mock
}

func (m *MockReconcileUseCase) Check(ctx context.Context, creatorID string) (*usecase.ReconcileReport, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileReport), args.Error(1)
}

func (m *MockReconcileUseCase) Repair(ctx context.Context, creatorID string) (*usecase.ReconcileReport, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ReconcileReport), args.Error(1)
}

func (m *MockReconcileUseCase) CheckAll(ctx context.Context, repair bool) ([]*usecase.ReconcileReport, error) {
	args := m.Called(ctx, repair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usecase.ReconcileReport), args.Error(1)
}

var (
	_ usecase.LedgerUseCase     = (*MockLedgerUseCase)(nil)
	_ usecase.PaymentUseCase    = (*MockPaymentUseCase)(nil)
	_ usecase.WithdrawalUseCase = (*MockWithdrawalUseCase)(nil)
	_ usecase.ReconcileUseCase  = (*MockReconcileUseCase)(nil)
)
