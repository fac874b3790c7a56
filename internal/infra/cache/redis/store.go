package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

const keyPrefix = "aiprobe:result:"

// Store is a redis-backed Cache implementation. Redis handles TTL expiry
// itself, so there is no sweep here. Get fails softly: any storage error is
// logged and reported as a miss so a broken cache never fails an analysis.
type Store struct {
	client *redis.Client
}

// New connects and pings. A nil Store with an error is returned when redis
// is unreachable; callers typically fall back to the in-memory store.
func New(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, fingerprint string) (analysis.Result, bool) {
	raw, err := s.client.Get(ctx, keyPrefix+fingerprint).Result()
	if err == redis.Nil {
		return analysis.Result{}, false
	}
	if err != nil {
		log.Printf("cache get error: %v", err)
		return analysis.Result{}, false
	}

	var res analysis.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		log.Printf("cache decode error: %v", err)
		return analysis.Result{}, false
	}
	return res, true
}

func (s *Store) Put(ctx context.Context, fingerprint string, res analysis.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		log.Printf("cache encode error: %v", err)
		return
	}
	if err := s.client.Set(ctx, keyPrefix+fingerprint, raw, ttl).Err(); err != nil {
		log.Printf("cache put error: %v", err)
	}
}

// Ping checks connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
