package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrWong99/tripmate/internal/trip"
)

// DefaultRedisPrefix namespaces state keys.
const DefaultRedisPrefix = "tripmate:state:"

// RedisStore keeps each conversation's state as a JSON string under
// prefix+id, optionally with a TTL refreshed on every save.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures a [RedisStore].
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides [DefaultRedisPrefix].
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires conversations that have not been saved for ttl. Zero keeps
// them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenRedis connects to addr and verifies connectivity.
func OpenRedis(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("statestore: redis: ping %s: %w", addr, err)
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// Load implements [Store].
func (s *RedisStore) Load(ctx context.Context, id string) (trip.State, error) {
	if err := ValidateID(id); err != nil {
		return trip.State{}, err
	}
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return trip.New(), nil
		}
		return trip.State{}, fmt.Errorf("statestore: redis: load %q: %w", id, err)
	}
	st, err := trip.Decode(raw)
	if err != nil {
		return trip.State{}, fmt.Errorf("statestore: redis: decode %q: %w", id, err)
	}
	return st, nil
}

// Save implements [Store].
func (s *RedisStore) Save(ctx context.Context, id string, st trip.State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("statestore: redis: marshal %q: %w", id, err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("statestore: redis: save %q: %w", id, err)
	}
	return nil
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("statestore: redis: delete %q: %w", id, err)
	}
	return nil
}

// Ping implements [Store].
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("statestore: redis: ping: %w", err)
	}
	return nil
}

// Close implements [Store].
func (s *RedisStore) Close() error {
	return s.client.Close()
}
