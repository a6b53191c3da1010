package validation

import (
	"strings"

	"instantpay/internal/services/transfer"

	"github.com/shopspring/decimal"
)

// SendPaymentRequest is the body of POST /api/payments/send.
type SendPaymentRequest struct {
	SenderID       string           `json:"senderId" validate:"notblank,max=64"`
	RecipientID    string           `json:"recipientId" validate:"notblank,max=64"`
	Amount         *decimal.Decimal `json:"amount" validate:"required,minamount,cents"`
	IdempotencyKey string           `json:"idempotencyKey" validate:"notblank,max=128"`
}

// Normalize returns a copy with surrounding whitespace removed from the
// identifiers. Validate the normalized request so length limits apply to
// the values that reach the engine.
func (r SendPaymentRequest) Normalize() SendPaymentRequest {
	r.SenderID = strings.TrimSpace(r.SenderID)
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	return r
}

// Command converts a validated request. Identifiers are trimmed.
func (r SendPaymentRequest) Command() transfer.Command {
	r = r.Normalize()
	cmd := transfer.Command{
		SenderID:       r.SenderID,
		RecipientID:    r.RecipientID,
		IdempotencyKey: r.IdempotencyKey,
	}
	if r.Amount != nil {
		cmd.Amount = *r.Amount
	}
	return cmd
}
