package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the durable record of one completed transfer. It is written in
// the same database transaction as the balance mutation and never updated.
type Transfer struct {
	ID             string          `gorm:"primarykey;size:36" json:"id"`
	SenderID       string          `gorm:"size:64;not null;index" json:"senderId"`
	RecipientID    string          `gorm:"size:64;not null;index" json:"recipientId"`
	Amount         decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	IdempotencyKey string          `gorm:"size:255;not null;uniqueIndex" json:"idempotencyKey"`
	CreatedAt      time.Time       `json:"createdAt"`
}
