package repositories

import (
	"context"
	"instantpay/internal/models"

	"go.uber.org/zap"
)

// TransferCache stores completed transfers by idempotency key.
type TransferCache interface {
	GetTransfer(ctx context.Context, idempotencyKey string) (*models.Transfer, bool, error)
	CacheTransfer(ctx context.Context, transfer *models.Transfer) error
}

type cachedTransferRepository struct {
	next   TransferRepository
	cache  TransferCache
	logger *zap.Logger
}

// NewCachedTransferRepository puts a read-through cache in front of the
// transfer log. Only hits are trusted; cache failures fall back to the log.
func NewCachedTransferRepository(next TransferRepository, cache TransferCache, logger *zap.Logger) TransferRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedTransferRepository{next: next, cache: cache, logger: logger}
}

func (r *cachedTransferRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transfer, error) {
	transfer, found, err := r.cache.GetTransfer(ctx, key)
	if err != nil {
		r.logger.Warn("transfer cache read failed", zap.String("idempotencyKey", key), zap.Error(err))
	} else if found {
		return transfer, nil
	}

	transfer, err = r.next.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheTransfer(ctx, transfer); err != nil {
		r.logger.Warn("transfer cache write failed", zap.String("idempotencyKey", key), zap.Error(err))
	}
	return transfer, nil
}
