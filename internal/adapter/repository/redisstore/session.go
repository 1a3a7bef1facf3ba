package redisstore

import (
	"context"
	"errors"
	"time"

	"greenbonds/internal/domain/session"

	"github.com/redis/go-redis/v9"
)

// Sessions implements session.Store on <prefix>:currentUser:<token id>.
type Sessions struct{ s *Store }

func (s *Store) Sessions() *Sessions { return &Sessions{s: s} }

var _ session.Store = (*Sessions)(nil)

func (ss *Sessions) Bind(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return ss.s.rdb.Set(ctx, ss.s.sessionKey(tokenID), userID, ttl).Err()
}

func (ss *Sessions) Resolve(ctx context.Context, tokenID string) (string, error) {
	userID, err := ss.s.rdb.Get(ctx, ss.s.sessionKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrNotFound
	}
	return userID, err
}

func (ss *Sessions) Revoke(ctx context.Context, tokenID string) error {
	return ss.s.rdb.Del(ctx, ss.s.sessionKey(tokenID)).Err()
}
