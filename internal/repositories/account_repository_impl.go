package repositories

import (
	"context"
	"errors"
	"fmt"
	"instantpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns the Postgres account store. The gorm handle
// must be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.Balance.IsNegative() {
		return fmt.Errorf("failed to create account: %w", ErrInsufficientBalance)
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) AtomicTransfer(ctx context.Context, transfer *models.Transfer) error {
	if err := validateTransfer(transfer); err != nil {
		return err
	}

	return r.executeInTransaction(ctx, func(tx *accountRepository) error {
		// Rows are locked in id order so opposite-direction transfers
		// between the same pair cannot deadlock.
		steps := []func() error{
			func() error { return tx.debit(transfer.SenderID, transfer.Amount) },
			func() error { return tx.credit(transfer.RecipientID, transfer.Amount) },
		}
		if transfer.RecipientID < transfer.SenderID {
			steps[0], steps[1] = steps[1], steps[0]
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return tx.createTransfer(transfer)
	})
}

func (r *accountRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Account{}).Select("COALESCE(SUM(balance), 0)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total balance: %w", err)
	}
	return total, nil
}

func (r *accountRepository) executeInTransaction(ctx context.Context, fn func(*accountRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &accountRepository{db: tx}
		return fn(txRepo)
	})
}

// debit is a conditional update: the row only changes when the balance
// covers the amount, so concurrent debits of one sender cannot overdraw it.
func (r *accountRepository) debit(id string, amount decimal.Decimal) error {
	result := r.db.Model(&models.Account{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to debit account: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.Model(&models.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if count == 0 {
		return ErrSenderNotFound
	}
	return ErrInsufficientBalance
}

func (r *accountRepository) credit(id string, amount decimal.Decimal) error {
	result := r.db.Model(&models.Account{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to credit account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecipientNotFound
	}
	return nil
}

func (r *accountRepository) createTransfer(transfer *models.Transfer) error {
	if err := r.db.Create(transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransfer
		}
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}
