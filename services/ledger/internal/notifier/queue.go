package notifier

import (
	"context"
	"fmt"

	"tiktip/services/ledger/internal/entity"
)

type queueClient interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// QueuePublisher writes events to the durable ledger exchange for
// downstream consumers such as email receipts and analytics.
type QueuePublisher struct {
	client queueClient
}

func NewQueuePublisher(client queueClient) *QueuePublisher {
	return &QueuePublisher{client: client}
}

func (p *QueuePublisher) Name() string {
	return "rabbitmq"
}

func (p *QueuePublisher) Publish(ctx context.Context, event entity.LedgerEvent) error {
	return p.client.Publish(ctx, RoutingKey(event), event)
}

// RoutingKey is ledger.<type>.<status>, matched by the ledger.# binding.
func RoutingKey(event entity.LedgerEvent) string {
	return fmt.Sprintf("ledger.%s.%s", event.Type, event.Status)
}
