package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatorModel struct {
	ID               string          `gorm:"type:uuid;primary_key"`
	Username         string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName      string          `gorm:"type:varchar(128);not null;default:''"`
	TotalEarnings    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	AvailableBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CreatorModel) TableName() string {
	return "creators"
}

func (c *CreatorModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
