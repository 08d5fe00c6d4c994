package cache

import (
	"fmt"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Reservation store kinds accepted in barcode.reservation_store
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// ReservationStoreFactory creates reservation stores based on configuration
type ReservationStoreFactory struct {
	redisConfig           config.RedisConfig
	kind                  string
	logger                *zap.Logger
	allowInMemoryFallback bool
	redisConnect          func(RedisConfig) (catalog.BarcodeReservationStore, error)
}

// ReservationStoreFactoryOption is a functional option for configuring the factory
type ReservationStoreFactoryOption func(*ReservationStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReservationStoreFactoryOption {
	return func(f *ReservationStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) ReservationStoreFactoryOption {
	return func(f *ReservationStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReservationStoreFactory creates a new factory
func NewReservationStoreFactory(redisCfg config.RedisConfig, kind string, opts ...ReservationStoreFactoryOption) *ReservationStoreFactory {
	f := &ReservationStoreFactory{
		redisConfig:           redisCfg,
		kind:                  kind,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		redisConnect: func(cfg RedisConfig) (catalog.BarcodeReservationStore, error) {
			return NewRedisReservationStore(cfg)
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore returns the configured store. The redis kind falls back to
// memory when Redis is unreachable and fallback is allowed.
func (f *ReservationStoreFactory) CreateStore() (catalog.BarcodeReservationStore, error) {
	switch f.kind {
	case "", StoreMemory:
		f.logger.Info("using in-memory barcode reservation store")
		return NewInMemoryReservationStore(), nil
	case StoreRedis:
	default:
		return nil, fmt.Errorf("unknown reservation store %q", f.kind)
	}

	store, err := f.redisConnect(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis barcode reservation store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for barcode reservations but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory barcode reservation store. "+
		"Concurrent instances may generate the same barcode.",
		zap.Error(err),
	)
	return NewInMemoryReservationStore(), nil
}
