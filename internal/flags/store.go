package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
)

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

// Store keeps boolean flags as JSON values in one Redis hash, field = flag key.
type Store struct {
	client redis.Cmdable
	hash   string
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client, hash: constants.RedisKeyFlags}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, key string, value bool) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	flag := &Flag{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(flag)
	if err != nil {
		return nil, fmt.Errorf("marshal flag: %w", err)
	}
	if err := s.client.HSet(ctx, s.hash, key, b).Err(); err != nil {
		return nil, fmt.Errorf("upsert flag %s: %w", key, err)
	}
	return flag, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get flag %s: %w", key, err)
	}

	var f Flag
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return nil, fmt.Errorf("unmarshal flag %s: %w", key, err)
	}
	return &f, nil
}

// IsEnabled returns the flag value, or def when the flag was never set.
func (s *Store) IsEnabled(ctx context.Context, key string, def bool) (bool, error) {
	f, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	return f.Value, nil
}

// List returns every flag ordered by key. Fields that fail to decode are skipped.
func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	out := make([]*Flag, 0, len(all))
	for field, raw := range all {
		var f Flag
		if err := json.Unmarshal([]byte(raw), &f); err != nil || f.Key != field {
			continue
		}
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes a flag. Deleting an unknown flag is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.hash, key).Err(); err != nil {
		return fmt.Errorf("delete flag %s: %w", key, err)
	}
	return nil
}
