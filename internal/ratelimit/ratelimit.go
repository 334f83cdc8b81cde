// Package ratelimit throttles requests per client address.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Store keeps a token bucket per key in process memory. Idle buckets are
// dropped by Run.
type Store struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewStore(requestsPerMinute, burst int) *Store {
	if burst < 1 {
		burst = 1
	}
	return &Store{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:    burst,
		idleTTL:  15 * time.Minute,
		now:      time.Now,
	}
}

func (s *Store) Allow(_ context.Context, key string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	s.mu.Unlock()

	return v.limiter.AllowN(now, 1), nil
}

// Run prunes idle buckets every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.prune()
		}
	}
}

func (s *Store) prune() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.idleTTL {
			delete(s.visitors, key)
		}
	}
}

func (s *Store) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RedisLimiter counts requests in fixed one-minute windows shared by every
// instance pointed at the same redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, requestsPerMinute int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(requestsPerMinute),
		window: time.Minute,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().Unix() / int64(l.window/time.Second)
	k := fmt.Sprintf("giveaway:ratelimit:%s:%d", key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}
