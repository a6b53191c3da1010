package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the balance of one transfer party.
type Account struct {
	ID        string          `gorm:"primarykey;size:64" json:"id"`
	Balance   decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0;check:balance_non_negative,balance >= 0" json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
