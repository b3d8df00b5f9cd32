package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEvent struct {
	TransactionID    string            `json:"transaction_id"`
	CreatorID        string            `json:"creator_id"`
	Reference        string            `json:"reference,omitempty"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	Amount           decimal.Decimal   `json:"amount"`
	AvailableBalance decimal.Decimal   `json:"available_balance"`
	SupporterName    string            `json:"supporter_name,omitempty"`
	OccurredAt       time.Time         `json:"occurred_at"`
}

func NewLedgerEvent(tx *Transaction, creator *Creator) LedgerEvent {
	ev := LedgerEvent{
		TransactionID: tx.ID,
		CreatorID:     tx.CreatorID,
		Reference:     tx.Reference(),
		Type:          tx.Type,
		Status:        tx.Status,
		Amount:        tx.Amount,
		SupporterName: tx.SupporterName,
		OccurredAt:    time.Now().UTC(),
	}
	if creator != nil {
		ev.AvailableBalance = creator.AvailableBalance
	}
	return ev
}
