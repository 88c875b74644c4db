package changedetect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store remembers the last source digest a pack build ran against.
type Store interface {
	LastDigest(ctx context.Context, key string) (string, error)
	SetDigest(ctx context.Context, key, digest string) error
}

type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisStore(client redis.UniversalClient, keyPrefix string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = "stickers:digest"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RedisStore) LastDigest(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last digest: %w", err)
	}
	return value, nil
}

func (s *RedisStore) SetDigest(ctx context.Context, key, digest string) error {
	if err := s.client.Set(ctx, s.keyPrefix+":"+key, digest, 0).Err(); err != nil {
		return fmt.Errorf("record digest: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu      sync.RWMutex
	digests map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{digests: make(map[string]string)}
}

func (s *MemoryStore) LastDigest(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digests[key], nil
}

func (s *MemoryStore) SetDigest(_ context.Context, key, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digests[key] = digest
	return nil
}
