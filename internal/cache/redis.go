package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
)

// DefaultPairTTL bounds how long a mint→pool choice is trusted.
const DefaultPairTTL = 10 * time.Minute

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PairTTL  time.Duration
}

// RedisCache remembers which pool was chosen for a mint.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = DefaultPairTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// GetPool returns the cached pool for mint, ok=false on a miss.
func (r *RedisCache) GetPool(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	val, err := r.client.Get(ctx, pairKey(mint)).Result()
	if errors.Is(err, redis.Nil) {
		return solana.PublicKey{}, false, nil
	}
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("get pair: %w", err)
	}

	pool, err := solana.PublicKeyFromBase58(val)
	if err != nil {
		// unreadable entries are treated as misses and dropped
		_ = r.client.Del(ctx, pairKey(mint)).Err()
		return solana.PublicKey{}, false, nil
	}
	return pool, true, nil
}

// SetPool records the chosen pool for mint with the configured TTL.
func (r *RedisCache) SetPool(ctx context.Context, mint, pool solana.PublicKey) error {
	if err := r.client.Set(ctx, pairKey(mint), pool.String(), r.ttl).Err(); err != nil {
		return fmt.Errorf("set pair: %w", err)
	}
	return nil
}

// Forget drops the cached pool for mint.
func (r *RedisCache) Forget(ctx context.Context, mint solana.PublicKey) error {
	if err := r.client.Del(ctx, pairKey(mint)).Err(); err != nil {
		return fmt.Errorf("delete pair: %w", err)
	}
	return nil
}

func pairKey(mint solana.PublicKey) string {
	return constants.RedisKeyPairPrefix + mint.String()
}
