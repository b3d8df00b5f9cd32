package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionModel struct {
	ID               string          `gorm:"type:uuid;primary_key"`
	CreatorID        string          `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_creator_idempotency,priority:1"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Type             string          `gorm:"type:varchar(20);not null"`
	Status           string          `gorm:"type:varchar(20);not null;default:pending"`
	PaymentReference *string         `gorm:"type:varchar(100);uniqueIndex:idx_transactions_payment_reference"`
	IdempotencyKey   *string         `gorm:"type:varchar(128);uniqueIndex:idx_transactions_creator_idempotency,priority:2"`
	AuthorizationURL string          `gorm:"type:text;not null;default:''"`
	SupporterName    string          `gorm:"type:varchar(100);not null;default:''"`
	Message          string          `gorm:"type:text;not null;default:''"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (TransactionModel) TableName() string {
	return "transactions"
}

func (t *TransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
