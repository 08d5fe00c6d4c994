package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultReservationKeyPrefix namespaces reservation keys in Redis
const DefaultReservationKeyPrefix = "barcode:reservation:"

// RedisReservationStore implements BarcodeReservationStore using Redis.
// Claims are shared by every server instance pointing at the same Redis.
type RedisReservationStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisReservationStore connects to Redis and verifies the connection
func NewRedisReservationStore(cfg RedisConfig) (*RedisReservationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisReservationStore{
		client:    client,
		keyPrefix: DefaultReservationKeyPrefix,
	}, nil
}

// NewRedisReservationStoreWithClient creates a store with an existing Redis client
func NewRedisReservationStoreWithClient(client *redis.Client, keyPrefix string) *RedisReservationStore {
	if keyPrefix == "" {
		keyPrefix = DefaultReservationKeyPrefix
	}
	return &RedisReservationStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Reserve claims code for the tenant with SETNX so that only one caller wins
func (s *RedisReservationStore) Reserve(ctx context.Context, tenantID uuid.UUID, code string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(tenantID, code), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve barcode: %w", err)
	}
	return ok, nil
}

// Release drops the claim on code
func (s *RedisReservationStore) Release(ctx context.Context, tenantID uuid.UUID, code string) error {
	if err := s.client.Del(ctx, s.key(tenantID, code)).Err(); err != nil {
		return fmt.Errorf("failed to release barcode: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisReservationStore) Close() error {
	return s.client.Close()
}

func (s *RedisReservationStore) key(tenantID uuid.UUID, code string) string {
	return s.keyPrefix + tenantID.String() + ":" + code
}

var _ catalog.BarcodeReservationStore = (*RedisReservationStore)(nil)
