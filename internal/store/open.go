package store

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"giveaway/internal/config"
)

// Backend groups what the service needs from persistence.
type Backend struct {
	Store  Store
	Locker Locker
	// Redis is set only for the redis backend; the rate limiter reuses it.
	Redis *redis.Client
}

// Open builds the backend selected by cfg.Store.
func Open(cfg *config.Config) (*Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &Backend{Store: NewMemoryStore(), Locker: NewMemoryLocker()}, nil
	case config.StoreSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return &Backend{Store: s, Locker: NewMemoryLocker()}, nil
	case config.StoreRedis:
		s, err := NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  s,
			Locker: NewRedisLocker(s.Client(), 5*time.Second),
			Redis:  s.Client(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func (b *Backend) Close() error {
	return b.Store.Close()
}
