package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"instantpay/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Transfer caching. Records are immutable so entries never need invalidation;
// only completed transfers are stored, a miss says nothing.
func (s *CacheService) CacheTransfer(ctx context.Context, transfer *models.Transfer) error {
	if transfer == nil {
		return errors.New("cannot cache nil transfer")
	}
	return s.Set(ctx, s.GenerateKey("transfer", "idempotency", transfer.IdempotencyKey), transfer)
}

func (s *CacheService) GetTransfer(ctx context.Context, idempotencyKey string) (*models.Transfer, bool, error) {
	var transfer models.Transfer
	found, err := s.Get(ctx, s.GenerateKey("transfer", "idempotency", idempotencyKey), &transfer)
	if err != nil || !found {
		return nil, false, err
	}
	return &transfer, true, nil
}

// HealthCheck pings redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
