package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tiktip/pkg/logger"
	"tiktip/pkg/metrics"
	"tiktip/services/ledger/internal/entity"
)

// Publisher delivers a committed ledger event to one backend.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event entity.LedgerEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Publish(ctx context.Context, event entity.LedgerEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			metrics.NotifierFailuresTotal.WithLabelValues(p.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

type NoOp struct{}

func (NoOp) Name() string {
	return "noop"
}

func (NoOp) Publish(context.Context, entity.LedgerEvent) error {
	return nil
}

// Dispatcher publishes after commit. Failures are logged and never reach the
// caller, and each dispatch gets its own deadline detached from the request.
type Dispatcher struct {
	publisher Publisher
	budget    time.Duration
	logger    *logger.Logger
}

func NewDispatcher(publisher Publisher, budget time.Duration, log *logger.Logger) *Dispatcher {
	if publisher == nil {
		publisher = NoOp{}
	}
	if budget <= 0 {
		budget = 2 * time.Second
	}
	return &Dispatcher{publisher: publisher, budget: budget, logger: log}
}

func (d *Dispatcher) Dispatch(event entity.LedgerEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.budget)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil && d.logger != nil {
		d.logger.Warn("[NOTIFIER] Failed to publish %s event for creator %s (tx %s): %v",
			event.Type, event.CreatorID, event.TransactionID, err)
	}
}
