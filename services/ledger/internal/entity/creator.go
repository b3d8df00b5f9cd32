package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Creator struct {
	ID               string
	Username         string
	DisplayName      string
	TotalEarnings    decimal.Decimal
	AvailableBalance decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Balances is the derived view of a creator's money computed from ledger rows.
type Balances struct {
	TotalEarnings    decimal.Decimal
	AvailableBalance decimal.Decimal
}
