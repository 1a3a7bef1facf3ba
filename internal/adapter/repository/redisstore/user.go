package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	userDomain "greenbonds/internal/domain/user"

	"github.com/redis/go-redis/v9"
)

type UserRepository struct {
	s     *Store
	read  redis.Cmdable
	write redis.Cmdable
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s, read: s.rdb, write: s.rdb}
}

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	u.Email = normEmail(u.Email)
	err := r.read.HGet(ctx, r.s.emailIndexKey(), u.Email).Err()
	switch {
	case err == nil:
		return userDomain.ErrEmailTaken
	case !errors.Is(err, redis.Nil):
		return err
	}
	return r.put(ctx, u, "")
}

func (r *UserRepository) Save(ctx context.Context, u *userDomain.User) error {
	prev, err := r.GetByUserID(ctx, u.UserID)
	if err != nil && !errors.Is(err, userDomain.ErrNotFound) {
		return err
	}
	oldEmail := ""
	if prev != nil {
		oldEmail = prev.Email
	}
	u.Email = normEmail(u.Email)
	return r.put(ctx, u, oldEmail)
}

func (r *UserRepository) put(ctx context.Context, u *userDomain.User, oldEmail string) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	// PasswordHash is hidden from JSON; persist it alongside the public record.
	data, err := json.Marshal(storedUser{User: u, PasswordHash: u.PasswordHash})
	if err != nil {
		return err
	}
	if err := r.write.HSet(ctx, r.s.usersKey(), u.UserID, data).Err(); err != nil {
		return err
	}
	if oldEmail != "" && oldEmail != u.Email {
		if err := r.write.HDel(ctx, r.s.emailIndexKey(), oldEmail).Err(); err != nil {
			return err
		}
	}
	return r.write.HSet(ctx, r.s.emailIndexKey(), u.Email, u.UserID).Err()
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	su, err := getJSON[storedUser](ctx, r.read, r.s.usersKey(), userID, userDomain.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return su.unwrap(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	userID, err := r.read.HGet(ctx, r.s.emailIndexKey(), normEmail(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, userDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

type storedUser struct {
	*userDomain.User
	PasswordHash string `json:"passwordHash"`
}

func (s *storedUser) unwrap() *userDomain.User {
	if s.User == nil {
		s.User = &userDomain.User{}
	}
	s.User.PasswordHash = s.PasswordHash
	return s.User
}
