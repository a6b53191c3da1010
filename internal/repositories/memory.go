package repositories

import (
	"context"
	"instantpay/internal/models"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps accounts and transfers in process memory. It satisfies
// both AccountRepository and TransferRepository and applies AtomicTransfer
// under a single mutex. Used by STORE=memory and by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]models.Account
	transfers map[string]models.Transfer
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]models.Account),
		transfers: make(map[string]models.Transfer),
	}
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (s *MemoryStore) Create(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account.Balance.IsNegative() {
		return ErrInsufficientBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return ErrDuplicateAccount
	}
	now := time.Now()
	account.CreatedAt, account.UpdatedAt = now, now
	s.accounts[account.ID] = *account
	return nil
}

func (s *MemoryStore) AtomicTransfer(ctx context.Context, transfer *models.Transfer) error {
	if err := validateTransfer(transfer); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transfer.IdempotencyKey]; ok {
		return ErrDuplicateTransfer
	}
	sender, ok := s.accounts[transfer.SenderID]
	if !ok {
		return ErrSenderNotFound
	}
	if _, ok := s.accounts[transfer.RecipientID]; !ok {
		return ErrRecipientNotFound
	}
	if sender.Balance.LessThan(transfer.Amount) {
		return ErrInsufficientBalance
	}

	now := time.Now()
	sender.Balance = sender.Balance.Sub(transfer.Amount)
	sender.UpdatedAt = now
	s.accounts[sender.ID] = sender

	// Re-read so a self-transfer credits the already debited balance.
	recipient := s.accounts[transfer.RecipientID]
	recipient.Balance = recipient.Balance.Add(transfer.Amount)
	recipient.UpdatedAt = now
	s.accounts[recipient.ID] = recipient

	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = now
	}
	s.transfers[transfer.IdempotencyKey] = *transfer
	return nil
}

func (s *MemoryStore) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, account := range s.accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

func (s *MemoryStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	transfer, ok := s.transfers[key]
	if !ok {
		return nil, ErrTransferNotFound
	}
	return &transfer, nil
}

// TransferCount reports how many transfers have been recorded.
func (s *MemoryStore) TransferCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transfers)
}
