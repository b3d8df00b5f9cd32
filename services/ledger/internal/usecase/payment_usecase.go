package usecase

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"tiktip/pkg/logger"
	"tiktip/pkg/metrics"
	"tiktip/pkg/payment"
	"tiktip/pkg/validation"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/notifier"
	"tiktip/services/ledger/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"

	anonymousEmail = "anonymous@tiktip.app"
)

type SignalSource string

const (
	SourceWebhook SignalSource = "webhook"
	SourceVerify  SignalSource = "verify"
)

type InitiateTipInput struct {
	CreatorID      string
	Amount         decimal.Decimal
	IdempotencyKey string
	SupporterName  string
	SupporterEmail string
	Message        string
}

type InitiateTipResult struct {
	Transaction      *entity.Transaction
	AuthorizationURL string
	Reused           bool
}

// CompletionSignal asserts that the payment behind Reference succeeded.
type CompletionSignal struct {
	Reference     string
	AmountMinor   int64
	CreatorID     string
	SupporterName string
	Message       string
	Source        SignalSource
}

type CompletionResult struct {
	Transaction *entity.Transaction
	// Applied is true only for the signal that moved the balance.
	Applied bool
}

type WebhookEvent struct {
	Event   string
	Payment payment.VerifyResponse
}

type PaymentConfig struct {
	Currency          string
	CallbackURL       string
	IdempotencyKeyMin int
}

type PaymentUseCase interface {
	FindExisting(ctx context.Context, creatorID, idempotencyKey string) (*entity.Transaction, error)
	InitiateTip(ctx context.Context, input InitiateTipInput) (*InitiateTipResult, error)
	Complete(ctx context.Context, signal CompletionSignal) (*CompletionResult, error)
	Verify(ctx context.Context, reference string) (*CompletionResult, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) (*CompletionResult, error)
	MarkFailed(ctx context.Context, reference string) (*entity.Transaction, error)
}

type paymentUseCase struct {
	repo       persistent.LedgerRepository
	provider   payment.Provider
	dispatcher *notifier.Dispatcher
	cfg        PaymentConfig
	logger     *logger.Logger
}

func NewPaymentUseCase(repo persistent.LedgerRepository, provider payment.Provider, dispatcher *notifier.Dispatcher, cfg PaymentConfig, logger *logger.Logger) PaymentUseCase {
	if cfg.IdempotencyKeyMin <= 0 {
		cfg.IdempotencyKeyMin = validation.DefaultIdempotencyKeyMin
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &paymentUseCase{
		repo:       repo,
		provider:   provider,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

func (uc *paymentUseCase) FindExisting(ctx context.Context, creatorID, idempotencyKey string) (*entity.Transaction, error) {
	return uc.repo.FindByIdempotencyKey(ctx, creatorID, idempotencyKey)
}

func (uc *paymentUseCase) InitiateTip(ctx context.Context, input InitiateTipInput) (*InitiateTipResult, error) {
	if !validation.IsMoney(input.Amount.String()) {
		return nil, fmt.Errorf("%w: tip must be positive with at most two decimal places", entity.ErrInvalidAmount)
	}
	if len(input.IdempotencyKey) < uc.cfg.IdempotencyKeyMin {
		return nil, fmt.Errorf("%w: must be at least %d characters", entity.ErrInvalidIdempotencyKey, uc.cfg.IdempotencyKeyMin)
	}

	if _, err := uc.repo.GetCreator(ctx, input.CreatorID); err != nil {
		return nil, err
	}

	existing, err := uc.FindExisting(ctx, input.CreatorID, input.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if existing != nil {
		return uc.reuse(existing)
	}

	reference := "tip_" + uuid.New().String()
	claim := &entity.Transaction{
		CreatorID:        input.CreatorID,
		Amount:           input.Amount,
		Type:             entity.TransactionTypeTip,
		Status:           entity.TransactionStatusPending,
		PaymentReference: &reference,
		IdempotencyKey:   &input.IdempotencyKey,
		SupporterName:    input.SupporterName,
		Message:          input.Message,
	}
	if err := uc.repo.InsertTransaction(ctx, claim); err != nil {
		if !errors.Is(err, entity.ErrDuplicateTransaction) {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		// lost the race to a concurrent request with the same key
		existing, findErr := uc.FindExisting(ctx, input.CreatorID, input.IdempotencyKey)
		if findErr != nil || existing == nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		return uc.reuse(existing)
	}

	email := input.SupporterEmail
	if email == "" {
		email = anonymousEmail
	}
	// No lock is held while the provider is called.
	initRes, err := uc.provider.InitializeTransaction(ctx, payment.InitializeRequest{
		Reference:   reference,
		Email:       email,
		AmountMinor: input.Amount.Shift(2).IntPart(),
		Currency:    uc.cfg.Currency,
		CallbackURL: uc.cfg.CallbackURL,
		Metadata: map[string]string{
			payment.MetaCreatorID:     input.CreatorID,
			payment.MetaSupporterName: input.SupporterName,
			payment.MetaMessage:       input.Message,
		},
	})
	if err != nil {
		uc.logger.Warn("[PAYMENT] Initialize failed for %s, releasing key: %v", reference, err)
		if delErr := uc.repo.DeletePendingTransaction(context.WithoutCancel(ctx), claim.ID); delErr != nil {
			uc.logger.Error("[PAYMENT] Failed to release claim %s: %v", claim.ID, delErr)
		}
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	claim.AuthorizationURL = initRes.AuthorizationURL
	if err := uc.repo.SetAuthorizationURL(ctx, claim.ID, initRes.AuthorizationURL); err != nil {
		// The payment exists at the provider; the webhook will still complete it.
		uc.logger.Error("[PAYMENT] Failed to store authorization URL for %s: %v", reference, err)
	}

	uc.logger.Info("[PAYMENT] Initialized tip %s for creator %s amount %s", reference, input.CreatorID, input.Amount.StringFixed(2))
	return &InitiateTipResult{Transaction: claim, AuthorizationURL: initRes.AuthorizationURL}, nil
}

func (uc *paymentUseCase) reuse(existing *entity.Transaction) (*InitiateTipResult, error) {
	if existing.Status == entity.TransactionStatusPending && existing.AuthorizationURL == "" {
		return nil, entity.ErrPaymentInProgress
	}
	metrics.IdempotentReplaysTotal.Inc()
	return &InitiateTipResult{
		Transaction:      existing,
		AuthorizationURL: existing.AuthorizationURL,
		Reused:           true,
	}, nil
}

func (uc *paymentUseCase) Complete(ctx context.Context, signal CompletionSignal) (*CompletionResult, error) {
	if signal.Reference == "" || utf8.RuneCountInString(signal.Reference) > entity.MaxReferenceLength {
		return nil, entity.ErrUnknownReference
	}
	if signal.Source == "" {
		signal.Source = SourceWebhook
	}

	result, creator, err := uc.complete(ctx, signal)
	if errors.Is(err, entity.ErrDuplicateTransaction) {
		// A concurrent signal inserted the row first; the retry sees it committed.
		result, creator, err = uc.complete(ctx, signal)
	}
	if err != nil {
		metrics.PaymentSignalsTotal.WithLabelValues(string(signal.Source), metrics.OutcomeError).Inc()
		return nil, err
	}

	if !result.Applied {
		metrics.PaymentSignalsTotal.WithLabelValues(string(signal.Source), metrics.OutcomeDuplicate).Inc()
		uc.logger.Debug("[PAYMENT] Duplicate %s signal for %s (status %s)", signal.Source, signal.Reference, result.Transaction.Status)
		return result, nil
	}

	metrics.PaymentSignalsTotal.WithLabelValues(string(signal.Source), metrics.OutcomeApplied).Inc()
	metrics.LedgerApplicationsTotal.WithLabelValues(string(entity.TransactionTypeTip), string(entity.TransactionStatusCompleted)).Inc()
	uc.logger.Info("[PAYMENT] Completed %s via %s: %s to creator %s",
		signal.Reference, signal.Source, result.Transaction.Amount.StringFixed(2), result.Transaction.CreatorID)
	uc.dispatcher.Dispatch(entity.NewLedgerEvent(result.Transaction, creator))
	return result, nil
}

func (uc *paymentUseCase) complete(ctx context.Context, signal CompletionSignal) (*CompletionResult, *entity.Creator, error) {
	var (
		result  *CompletionResult
		creator *entity.Creator
	)
	signalAmount := decimal.New(signal.AmountMinor, -2)

	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		row, err := ltx.LockTransactionByReference(signal.Reference)
		if errors.Is(err, entity.ErrTransactionNotFound) {
			if signal.CreatorID == "" {
				return fmt.Errorf("%w: %s", entity.ErrUnknownReference, signal.Reference)
			}
			if !signalAmount.IsPositive() || signalAmount.GreaterThan(validation.MaxMoney) {
				return fmt.Errorf("%w: signal for %s carries amount %s", entity.ErrInvalidAmount, signal.Reference, signalAmount.StringFixed(2))
			}
			tx, updated, err := applyLocked(ltx, signal.CreatorID, signalAmount, entity.TransactionTypeTip, ApplyOptions{
				Status:           entity.TransactionStatusCompleted,
				PaymentReference: signal.Reference,
				SupporterName:    signal.SupporterName,
				Message:          signal.Message,
			})
			if err != nil {
				return err
			}
			result, creator = &CompletionResult{Transaction: tx, Applied: true}, updated
			return nil
		}
		if err != nil {
			return err
		}

		if row.Status == entity.TransactionStatusCompleted {
			result = &CompletionResult{Transaction: row}
			return nil
		}
		if row.Type != entity.TransactionTypeTip {
			if row.Status == entity.TransactionStatusFailed {
				result = &CompletionResult{Transaction: row}
				return nil
			}
			return fmt.Errorf("%w: reference %s belongs to a %s", entity.ErrInvalidTransition, signal.Reference, row.Type)
		}
		if row.Status == entity.TransactionStatusFailed {
			// The payer retried on the same reference after a declined attempt.
			uc.logger.Info("[PAYMENT] %s signal settles previously failed tip %s", signal.Source, signal.Reference)
		}
		if _, err := ltx.LockCreator(row.CreatorID); err != nil {
			return err
		}

		amount := row.Amount
		if !amount.IsPositive() {
			amount = signalAmount
		} else if signalAmount.IsPositive() && !signalAmount.Equal(amount) {
			metrics.PaymentAmountMismatchesTotal.Inc()
			uc.logger.Warn("[PAYMENT] Amount mismatch for %s: stored %s, settled %s; keeping stored amount",
				signal.Reference, amount.StringFixed(2), signalAmount.StringFixed(2))
		}
		if !amount.IsPositive() || amount.GreaterThan(validation.MaxMoney) {
			return fmt.Errorf("%w: no usable settled amount for %s", entity.ErrInvalidAmount, signal.Reference)
		}

		row.Status = entity.TransactionStatusCompleted
		row.Amount = amount
		if row.SupporterName == "" {
			row.SupporterName = signal.SupporterName
		}
		if row.Message == "" {
			row.Message = signal.Message
		}
		if err := ltx.UpdateTransaction(row); err != nil {
			return err
		}

		earnings, available := entity.BalanceDelta(entity.TransactionTypeTip, amount)
		updated, err := ltx.AdjustBalances(row.CreatorID, earnings, available)
		if err != nil {
			return err
		}
		result, creator = &CompletionResult{Transaction: row, Applied: true}, updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, creator, nil
}

func (uc *paymentUseCase) Verify(ctx context.Context, reference string) (*CompletionResult, error) {
	if reference == "" || utf8.RuneCountInString(reference) > entity.MaxReferenceLength {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownReference, reference)
	}
	stored, err := uc.repo.GetTransactionByReference(ctx, reference)
	if err != nil && !errors.Is(err, entity.ErrTransactionNotFound) {
		return nil, err
	}
	if stored != nil && stored.Status == entity.TransactionStatusCompleted {
		metrics.PaymentSignalsTotal.WithLabelValues(string(SourceVerify), metrics.OutcomeDuplicate).Inc()
		return &CompletionResult{Transaction: stored}, nil
	}

	res, err := uc.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		if errors.Is(err, payment.ErrReferenceNotFound) {
			if stored == nil {
				return nil, fmt.Errorf("%w: %s", entity.ErrUnknownReference, reference)
			}
			return &CompletionResult{Transaction: stored}, nil
		}
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	switch res.Status {
	case payment.StatusSuccess:
		signal := signalFromPayment(res, SourceVerify)
		if stored != nil {
			signal.CreatorID = stored.CreatorID
		}
		return uc.Complete(ctx, signal)
	case payment.StatusFailed:
		if stored == nil {
			return nil, fmt.Errorf("%w: %s", entity.ErrUnknownReference, reference)
		}
		tx, err := uc.MarkFailed(ctx, reference)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{Transaction: tx}, nil
	}

	// abandoned or still pending at the provider; the payer may yet finish
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownReference, reference)
	}
	metrics.PaymentSignalsTotal.WithLabelValues(string(SourceVerify), metrics.OutcomeIgnored).Inc()
	return &CompletionResult{Transaction: stored}, nil
}

func (uc *paymentUseCase) HandleWebhook(ctx context.Context, event WebhookEvent) (*CompletionResult, error) {
	switch event.Event {
	case EventChargeSuccess:
		if event.Payment.Status != "" && event.Payment.Status != payment.StatusSuccess {
			uc.logger.Warn("[PAYMENT] %s for %s carries status %s", event.Event, event.Payment.Reference, event.Payment.Status)
		}
		return uc.Complete(ctx, signalFromPayment(&event.Payment, SourceWebhook))
	case EventChargeFailed:
		tx, err := uc.MarkFailed(ctx, event.Payment.Reference)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{Transaction: tx}, nil
	}

	metrics.PaymentSignalsTotal.WithLabelValues(string(SourceWebhook), metrics.OutcomeIgnored).Inc()
	uc.logger.Debug("[PAYMENT] Ignoring webhook event %s", event.Event)
	return nil, nil
}

func (uc *paymentUseCase) MarkFailed(ctx context.Context, reference string) (*entity.Transaction, error) {
	var (
		row     *entity.Transaction
		changed bool
	)
	err := uc.repo.InTx(ctx, func(ltx persistent.LedgerTx) error {
		var err error
		row, err = ltx.LockTransactionByReference(reference)
		if err != nil {
			return err
		}
		if row.Status != entity.TransactionStatusPending {
			return nil
		}
		row.Status = entity.TransactionStatusFailed
		changed = true
		return ltx.UpdateTransaction(row)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.logger.Info("[PAYMENT] Marked %s failed", reference)
	}
	return row, nil
}

func signalFromPayment(res *payment.VerifyResponse, source SignalSource) CompletionSignal {
	return CompletionSignal{
		Reference:     res.Reference,
		AmountMinor:   res.AmountMinor,
		CreatorID:     res.Metadata[payment.MetaCreatorID],
		SupporterName: entity.Truncate(res.Metadata[payment.MetaSupporterName], entity.MaxSupporterNameLength),
		Message:       entity.Truncate(res.Metadata[payment.MetaMessage], entity.MaxMessageLength),
		Source:        source,
	}
}
