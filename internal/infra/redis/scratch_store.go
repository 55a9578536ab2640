package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ScratchStore keeps session scratch keys in Redis so a session can be resumed
// from another host. Keys never expire; the engine clears them explicitly.
type ScratchStore struct {
	client *redis.Client
	prefix string
}

func NewScratchStore(client *redis.Client, prefix string) *ScratchStore {
	if prefix == "" {
		prefix = "quiztaker:scratch:"
	}
	return &ScratchStore{client: client, prefix: prefix}
}

func (s *ScratchStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *ScratchStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// Delete removes every key with a single DEL, which Redis applies atomically.
func (s *ScratchStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.prefix + key
	}
	return s.client.Del(ctx, full...).Err()
}
