package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tiktip/pkg/logger"
	"tiktip/pkg/metrics"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/notifier"
	"tiktip/services/ledger/internal/repo/persistent"

	"github.com/shopspring/decimal"
)

type ApplyOptions struct {
	// Status defaults to completed. Only withdrawals may be applied as
	// pending, which holds the funds until an admin decides.
	Status           entity.TransactionStatus
	PaymentReference string
	IdempotencyKey   string
	SupporterName    string
	Message          string
}

type LedgerUseCase interface {
	Apply(ctx context.Context, creatorID string, amount decimal.Decimal, kind entity.TransactionType, opts ApplyOptions) (*entity.Transaction, error)
	GetCreator(ctx context.Context, id string) (*entity.Creator, error)
	GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error)
	CreateCreator(ctx context.Context, username, displayName string) (*entity.Creator, error)
	GetTransaction(ctx context.Context, id string) (*entity.Transaction, error)
	ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error)
}

type ledgerUseCase struct {
	repo       persistent.LedgerRepository
	dispatcher *notifier.Dispatcher
	logger     *logger.Logger
}

func NewLedgerUseCase(repo persistent.LedgerRepository, dispatcher *notifier.Dispatcher, logger *logger.Logger) LedgerUseCase {
	return &ledgerUseCase{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (uc *ledgerUseCase) Apply(ctx context.Context, creatorID string, amount decimal.Decimal, kind entity.TransactionType, opts ApplyOptions) (*entity.Transaction, error) {
	if err := entity.CheckSign(kind, amount); err != nil {
		metrics.LedgerRejectionsTotal.WithLabelValues("invalid_amount").Inc()
		return nil, err
	}
	if opts.Status == "" {
		opts.Status = entity.TransactionStatusCompleted
	}
	if opts.Status == entity.TransactionStatusFailed ||
		(opts.Status == entity.TransactionStatusPending && kind != entity.TransactionTypeWithdrawal) {
		return nil, fmt.Errorf("%w: cannot apply %s as %s", entity.ErrInvalidTransition, kind, opts.Status)
	}

	var (
		tx      *entity.Transaction
		creator *entity.Creator
	)
	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		var err error
		tx, creator, err = applyLocked(ltx, creatorID, amount, kind, opts)
		return err
	})
	if err != nil {
		recordRejection(err)
		return nil, err
	}

	metrics.LedgerApplicationsTotal.WithLabelValues(string(kind), string(tx.Status)).Inc()
	uc.logger.Info("[LEDGER] Applied %s %s for creator %s (tx %s)", kind, amount.StringFixed(2), creatorID, tx.ID)
	uc.dispatcher.Dispatch(entity.NewLedgerEvent(tx, creator))
	return tx, nil
}

// applyLocked inserts the row and moves the balances inside an open
// transaction. The creator row is locked before the balance check.
func applyLocked(ltx persistent.LedgerTx, creatorID string, amount decimal.Decimal, kind entity.TransactionType, opts ApplyOptions) (*entity.Transaction, *entity.Creator, error) {
	creator, err := ltx.LockCreator(creatorID)
	if err != nil {
		return nil, nil, err
	}
	if kind == entity.TransactionTypeWithdrawal && amount.Abs().GreaterThan(creator.AvailableBalance) {
		return nil, nil, fmt.Errorf("%w: requested %s, available %s",
			entity.ErrInsufficientBalance, amount.Abs().StringFixed(2), creator.AvailableBalance.StringFixed(2))
	}

	tx := &entity.Transaction{
		CreatorID:        creatorID,
		Amount:           amount,
		Type:             kind,
		Status:           opts.Status,
		PaymentReference: optional(opts.PaymentReference),
		IdempotencyKey:   optional(opts.IdempotencyKey),
		SupporterName:    opts.SupporterName,
		Message:          opts.Message,
	}
	if err := ltx.InsertTransaction(tx); err != nil {
		return nil, nil, err
	}

	earnings, available := entity.BalanceDelta(kind, amount)
	updated, err := ltx.AdjustBalances(creatorID, earnings, available)
	if err != nil {
		return nil, nil, err
	}
	return tx, updated, nil
}

func (uc *ledgerUseCase) GetCreator(ctx context.Context, id string) (*entity.Creator, error) {
	return uc.repo.GetCreator(ctx, id)
}

func (uc *ledgerUseCase) GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error) {
	return uc.repo.GetCreatorByUsername(ctx, strings.TrimPrefix(strings.ToLower(username), "@"))
}

func (uc *ledgerUseCase) CreateCreator(ctx context.Context, username, displayName string) (*entity.Creator, error) {
	username = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(username)), "@")
	if username == "" {
		return nil, errors.New("username is required")
	}
	creator := &entity.Creator{
		Username:         username,
		DisplayName:      displayName,
		TotalEarnings:    decimal.Zero,
		AvailableBalance: decimal.Zero,
	}
	if err := uc.repo.CreateCreator(ctx, creator); err != nil {
		if !errors.Is(err, entity.ErrCreatorExists) {
			uc.logger.Error("Failed to create creator: %v", err)
		}
		return nil, err
	}
	uc.logger.Info("[LEDGER] Created creator %s (%s)", creator.Username, creator.ID)
	return creator, nil
}

func (uc *ledgerUseCase) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	return uc.repo.GetTransaction(ctx, id)
}

func (uc *ledgerUseCase) ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	transactions, total, err := uc.repo.ListTransactions(ctx, creatorID, filter, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to list transactions: %v", err)
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, total, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func recordRejection(err error) {
	switch {
	case errors.Is(err, entity.ErrInsufficientBalance):
		metrics.LedgerRejectionsTotal.WithLabelValues("insufficient_balance").Inc()
	case errors.Is(err, entity.ErrCreatorNotFound):
		metrics.LedgerRejectionsTotal.WithLabelValues("creator_not_found").Inc()
	case errors.Is(err, entity.ErrInvalidTransition):
		metrics.LedgerRejectionsTotal.WithLabelValues("invalid_transition").Inc()
	default:
		metrics.LedgerRejectionsTotal.WithLabelValues("error").Inc()
	}
}
