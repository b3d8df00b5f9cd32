package usecase

import (
	"context"
	"fmt"

	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/repo/persistent"
)

// ReconcileReport compares the stored creator balances with the balances
// derived from the creator's ledger rows.
type ReconcileReport struct {
	CreatorID string
	Stored    entity.Balances
	Computed  entity.Balances
	Repaired  bool
}

func (r *ReconcileReport) Drift() bool {
	return !r.Stored.TotalEarnings.Equal(r.Computed.TotalEarnings) ||
		!r.Stored.AvailableBalance.Equal(r.Computed.AvailableBalance)
}

type ReconcileUseCase interface {
	Check(ctx context.Context, creatorID string) (*ReconcileReport, error)
	Repair(ctx context.Context, creatorID string) (*ReconcileReport, error)
	CheckAll(ctx context.Context, repair bool) ([]*ReconcileReport, error)
}

type reconcileUseCase struct {
	repo   persistent.LedgerRepository
	logger *logger.Logger
}

func NewReconcileUseCase(repo persistent.LedgerRepository, logger *logger.Logger) ReconcileUseCase {
	return &reconcileUseCase{repo: repo, logger: logger}
}

func (uc *reconcileUseCase) Check(ctx context.Context, creatorID string) (*ReconcileReport, error) {
	return uc.run(ctx, creatorID, false)
}

func (uc *reconcileUseCase) Repair(ctx context.Context, creatorID string) (*ReconcileReport, error) {
	return uc.run(ctx, creatorID, true)
}

func (uc *reconcileUseCase) CheckAll(ctx context.Context, repair bool) ([]*ReconcileReport, error) {
	ids, err := uc.repo.ListCreatorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}

	reports := make([]*ReconcileReport, 0, len(ids))
	for _, id := range ids {
		report, err := uc.run(ctx, id, repair)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// run holds the creator lock so no apply can interleave with the sum.
func (uc *reconcileUseCase) run(ctx context.Context, creatorID string, repair bool) (*ReconcileReport, error) {
	report := &ReconcileReport{CreatorID: creatorID}
	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		creator, err := ltx.LockCreator(creatorID)
		if err != nil {
			return err
		}
		report.Stored = entity.Balances{TotalEarnings: creator.TotalEarnings, AvailableBalance: creator.AvailableBalance}

		if report.Computed, err = ltx.SumBalances(creatorID); err != nil {
			return err
		}
		if !repair || !report.Drift() {
			return nil
		}
		if report.Computed.AvailableBalance.IsNegative() {
			return fmt.Errorf("%w: ledger rows for %s sum to a negative balance", entity.ErrInsufficientBalance, creatorID)
		}
		if err := ltx.SetBalances(creatorID, report.Computed); err != nil {
			return err
		}
		report.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.Drift() {
		uc.logger.Warn("[RECONCILE] Creator %s drift: stored earnings=%s available=%s, ledger earnings=%s available=%s (repaired=%t)",
			creatorID,
			report.Stored.TotalEarnings.StringFixed(2), report.Stored.AvailableBalance.StringFixed(2),
			report.Computed.TotalEarnings.StringFixed(2), report.Computed.AvailableBalance.StringFixed(2),
			report.Repaired)
	}
	return report, nil
}
