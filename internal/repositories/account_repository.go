package repositories

import (
	"context"
	"errors"
	"instantpay/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrSenderNotFound      = errors.New("sender account not found")
	ErrRecipientNotFound   = errors.New("recipient account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrDuplicateTransfer   = errors.New("transfer already recorded for idempotency key")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrInvalidTransfer     = errors.New("invalid transfer")
)

// AccountRepository is the account store.
type AccountRepository interface {
	// Core account operations
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error

	// AtomicTransfer debits transfer.SenderID, credits transfer.RecipientID
	// and appends the transfer record as one unit. It returns
	// ErrInsufficientBalance when the debit would go negative,
	// ErrSenderNotFound / ErrRecipientNotFound when a party is missing and
	// ErrDuplicateTransfer when the idempotency key is already recorded.
	// Nothing is persisted when an error is returned.
	AtomicTransfer(ctx context.Context, transfer *models.Transfer) error

	// Reporting
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// TransferRepository is the append-only transfer log.
type TransferRepository interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transfer, error)
}

func validateTransfer(transfer *models.Transfer) error {
	if transfer == nil || transfer.IdempotencyKey == "" || !transfer.Amount.IsPositive() {
		return ErrInvalidTransfer
	}
	return nil
}
