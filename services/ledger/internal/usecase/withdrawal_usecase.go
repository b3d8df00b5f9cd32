package usecase

import (
	"context"
	"fmt"

	"tiktip/pkg/logger"
	"tiktip/pkg/metrics"
	"tiktip/pkg/validation"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/notifier"
	"tiktip/services/ledger/internal/repo/persistent"

	"github.com/shopspring/decimal"
)

type WithdrawalUseCase interface {
	Request(ctx context.Context, creatorID string, amount decimal.Decimal, note string) (*entity.Transaction, error)
	Approve(ctx context.Context, transactionID string) (*entity.Transaction, error)
	Decline(ctx context.Context, transactionID, reason string) (withdrawal, refund *entity.Transaction, err error)
	ListPending(ctx context.Context, limit, offset int) ([]*entity.Transaction, error)
}

type withdrawalUseCase struct {
	ledger     LedgerUseCase
	repo       persistent.LedgerRepository
	dispatcher *notifier.Dispatcher
	logger     *logger.Logger
}

func NewWithdrawalUseCase(ledger LedgerUseCase, repo persistent.LedgerRepository, dispatcher *notifier.Dispatcher, logger *logger.Logger) WithdrawalUseCase {
	return &withdrawalUseCase{
		ledger:     ledger,
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Request holds amount from the available balance as a pending withdrawal.
func (uc *withdrawalUseCase) Request(ctx context.Context, creatorID string, amount decimal.Decimal, note string) (*entity.Transaction, error) {
	if !validation.IsMoney(amount.String()) {
		return nil, fmt.Errorf("%w: withdrawal must be positive with at most two decimal places", entity.ErrInvalidAmount)
	}
	return uc.ledger.Apply(ctx, creatorID, amount.Neg(), entity.TransactionTypeWithdrawal, ApplyOptions{
		Status:  entity.TransactionStatusPending,
		Message: note,
	})
}

func (uc *withdrawalUseCase) Approve(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	var (
		row     *entity.Transaction
		creator *entity.Creator
	)
	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		var err error
		if row, err = lockPendingWithdrawal(ltx, transactionID); err != nil {
			return err
		}
		if creator, err = ltx.LockCreator(row.CreatorID); err != nil {
			return err
		}
		row.Status = entity.TransactionStatusCompleted
		return ltx.UpdateTransaction(row)
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerApplicationsTotal.WithLabelValues(string(entity.TransactionTypeWithdrawal), string(row.Status)).Inc()
	uc.logger.Info("[WITHDRAWAL] Approved %s for creator %s", row.ID, row.CreatorID)
	uc.dispatcher.Dispatch(entity.NewLedgerEvent(row, creator))
	return row, nil
}

// Decline fails the withdrawal and returns the held funds through a refund
// row in the same transaction.
func (uc *withdrawalUseCase) Decline(ctx context.Context, transactionID, reason string) (*entity.Transaction, *entity.Transaction, error) {
	var (
		row, refund *entity.Transaction
		creator     *entity.Creator
	)
	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		var err error
		if row, err = lockPendingWithdrawal(ltx, transactionID); err != nil {
			return err
		}
		row.Status = entity.TransactionStatusFailed
		if err := ltx.UpdateTransaction(row); err != nil {
			return err
		}

		message := reason
		if message == "" {
			message = "withdrawal " + row.ID + " declined"
		}
		refund, creator, err = applyLocked(ltx, row.CreatorID, row.Amount.Abs(), entity.TransactionTypeRefund, ApplyOptions{
			Status:  entity.TransactionStatusCompleted,
			Message: message,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.LedgerApplicationsTotal.WithLabelValues(string(entity.TransactionTypeRefund), string(refund.Status)).Inc()
	uc.logger.Info("[WITHDRAWAL] Declined %s for creator %s, refunded %s", row.ID, row.CreatorID, refund.Amount.StringFixed(2))
	uc.dispatcher.Dispatch(entity.NewLedgerEvent(row, creator))
	uc.dispatcher.Dispatch(entity.NewLedgerEvent(refund, creator))
	return row, refund, nil
}

func (uc *withdrawalUseCase) ListPending(ctx context.Context, limit, offset int) ([]*entity.Transaction, error) {
	transactions, err := uc.repo.ListPendingWithdrawals(ctx, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to list pending withdrawals: %v", err)
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return transactions, nil
}

func lockPendingWithdrawal(ltx persistent.LedgerTx, transactionID string) (*entity.Transaction, error) {
	row, err := ltx.LockTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if row.Type != entity.TransactionTypeWithdrawal {
		return nil, fmt.Errorf("%w: %s is a %s", entity.ErrInvalidTransition, row.ID, row.Type)
	}
	if row.Status != entity.TransactionStatusPending {
		return nil, fmt.Errorf("%w: withdrawal %s is already %s", entity.ErrInvalidTransition, row.ID, row.Status)
	}
	return row, nil
}
