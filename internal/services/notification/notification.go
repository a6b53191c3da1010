// Package notification delivers "funds received" messages to recipients.
//
// Delivery is best effort. The Dispatcher queues notifications and hands
// them to a Sink on worker goroutines, so a slow or failing sink never
// delays the transfer that produced the notification.
package notification

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notification is one "funds received" message.
type Notification struct {
	RecipientID string
	Amount      decimal.Decimal
}

// Text renders the message body.
func (n Notification) Text() string {
	return "You received: " + n.Amount.StringFixed(2)
}

// Sink delivers a single notification.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}
