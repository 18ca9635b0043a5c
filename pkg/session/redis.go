package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "console:session:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the redis at redisURL and checks it answers.
func NewRedisStore(ctx context.Context, redisURL string) (Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse session redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connect session redis")
	}
	return &redisStore{client: client}, nil
}

func (r *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	if s.IsExpired() {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	ttl := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}
	return errors.Wrap(r.client.Set(ctx, redisKeyPrefix+s.ID, raw, ttl).Err(), "write session")
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(r.client.Del(ctx, redisKeyPrefix+id).Err(), "delete session")
}
