package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/persistence"
)

// RedisStore keeps sessions in Redis. The TTL is set on save and renewed on
// every successful load, so an active browser stays signed in.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore builds a store on top of the shared Redis connection.
func NewRedisStore(r *persistence.Redis, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("session: redis client not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: r.Client, ttl: ttl, logger: logger}, nil
}

func (s *RedisStore) Load(ctx context.Context, sid string) domain.Session {
	if sid == "" {
		return nil
	}
	raw, err := s.client.Get(ctx, Key(sid)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("session load failed", zap.Error(err))
		}
		return nil
	}
	sess := Decode(raw)
	if sess == nil {
		s.logger.Info("discarding unreadable session blob")
		_ = s.client.Del(ctx, Key(sid)).Err()
		return nil
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, Key(sid), s.ttl).Err(); err != nil {
			s.logger.Warn("session ttl refresh failed", zap.Error(err))
		}
	}
	return sess
}

func (s *RedisStore) Save(ctx context.Context, sid string, sess domain.Session) error {
	if sid == "" {
		return errEmptySID
	}
	raw, err := Encode(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, Key(sid), raw, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.client.Del(ctx, Key(sid)).Err()
}
