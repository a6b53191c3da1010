package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"instantpay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, balances map[string]string) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	for id, balance := range balances {
		require.NoError(t, store.Create(context.Background(), &models.Account{
			ID:      id,
			Balance: decimal.RequireFromString(balance),
		}))
	}
	return store
}

func balanceOf(t *testing.T, store *MemoryStore, id string) string {
	t.Helper()
	account, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance.StringFixed(2)
}

func TestMemoryStore_AtomicTransfer(t *testing.T) {
	tests := []struct {
		name          string
		transfer      models.Transfer
		wantErr       error
		wantSender    string
		wantRecipient string
	}{
		{
			name:          "successful transfer",
			transfer:      models.Transfer{SenderID: "user1", RecipientID: "user2", Amount: decimal.RequireFromString("100"), IdempotencyKey: "k1"},
			wantSender:    "900.00",
			wantRecipient: "600.00",
		},
		{
			name:          "exact balance",
			transfer:      models.Transfer{SenderID: "user1", RecipientID: "user2", Amount: decimal.RequireFromString("1000.00"), IdempotencyKey: "k1"},
			wantSender:    "0.00",
			wantRecipient: "1500.00",
		},
		{
			name:          "insufficient balance",
			transfer:      models.Transfer{SenderID: "user2", RecipientID: "user1", Amount: decimal.RequireFromString("500.01"), IdempotencyKey: "k1"},
			wantErr:       ErrInsufficientBalance,
			wantSender:    "1000.00",
			wantRecipient: "500.00",
		},
		{
			name:          "unknown sender",
			transfer:      models.Transfer{SenderID: "ghost", RecipientID: "user2", Amount: decimal.RequireFromString("1"), IdempotencyKey: "k1"},
			wantErr:       ErrSenderNotFound,
			wantSender:    "1000.00",
			wantRecipient: "500.00",
		},
		{
			name:          "unknown recipient",
			transfer:      models.Transfer{SenderID: "user1", RecipientID: "ghost", Amount: decimal.RequireFromString("1"), IdempotencyKey: "k1"},
			wantErr:       ErrRecipientNotFound,
			wantSender:    "1000.00",
			wantRecipient: "500.00",
		},
		{
			name:          "non positive amount",
			transfer:      models.Transfer{SenderID: "user1", RecipientID: "user2", Amount: decimal.Zero, IdempotencyKey: "k1"},
			wantErr:       ErrInvalidTransfer,
			wantSender:    "1000.00",
			wantRecipient: "500.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, map[string]string{"user1": "1000", "user2": "500"})
			transfer := tt.transfer

			err := store.AtomicTransfer(context.Background(), &transfer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, store.TransferCount())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, store.TransferCount())
				assert.False(t, transfer.CreatedAt.IsZero())
			}

			assert.Equal(t, tt.wantSender, balanceOf(t, store, "user1"))
			assert.Equal(t, tt.wantRecipient, balanceOf(t, store, "user2"))
		})
	}
}

func TestMemoryStore_DuplicateKey(t *testing.T) {
	store := seededStore(t, map[string]string{"user1": "1000", "user2": "500"})
	transfer := models.Transfer{SenderID: "user1", RecipientID: "user2", Amount: decimal.RequireFromString("10"), IdempotencyKey: "dup"}

	require.NoError(t, store.AtomicTransfer(context.Background(), &transfer))
	again := transfer
	assert.ErrorIs(t, store.AtomicTransfer(context.Background(), &again), ErrDuplicateTransfer)

	assert.Equal(t, "990.00", balanceOf(t, store, "user1"))
	found, err := store.FindByIdempotencyKey(context.Background(), "dup")
	require.NoError(t, err)
	assert.Equal(t, "user2", found.RecipientID)
}

func TestMemoryStore_SelfTransfer(t *testing.T) {
	store := seededStore(t, map[string]string{"user1": "100"})
	transfer := models.Transfer{SenderID: "user1", RecipientID: "user1", Amount: decimal.RequireFromString("100"), IdempotencyKey: "self"}

	require.NoError(t, store.AtomicTransfer(context.Background(), &transfer))
	assert.Equal(t, "100.00", balanceOf(t, store, "user1"))
	assert.Equal(t, 1, store.TransferCount())
}

func TestMemoryStore_ConcurrentTransfersConserveBalance(t *testing.T) {
	store := seededStore(t, map[string]string{"a": "100", "b": "100", "c": "100"})
	ids := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for i := 0; i < 90; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transfer := models.Transfer{
				SenderID:       ids[i%3],
				RecipientID:    ids[(i+1)%3],
				Amount:         decimal.RequireFromString("7.25"),
				IdempotencyKey: fmt.Sprintf("key-%d", i),
			}
			_ = store.AtomicTransfer(context.Background(), &transfer)
		}(i)
	}
	wg.Wait()

	total, err := store.TotalBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(300)), "total balance %s", total)
	for _, id := range ids {
		account, err := store.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, account.Balance.IsNegative())
	}
}

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Account{ID: "user1", Balance: decimal.NewFromInt(1)}))
	assert.ErrorIs(t, store.Create(ctx, &models.Account{ID: "user1"}), ErrDuplicateAccount)
	assert.ErrorIs(t, store.Create(ctx, &models.Account{ID: "neg", Balance: decimal.NewFromInt(-1)}), ErrInsufficientBalance)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = store.FindByIdempotencyKey(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransferNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.GetByID(cancelled, "user1")
	assert.ErrorIs(t, err, context.Canceled)
}
