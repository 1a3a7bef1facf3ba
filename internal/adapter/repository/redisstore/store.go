// Package redisstore keeps every record collection as JSON in one Redis hash
// per collection, with secondary indexes in sets and hashes:
//
//	<prefix>:bonds                       bond id -> Bond
//	<prefix>:investments                 investment id -> Investment
//	<prefix>:investments:tx              transaction id -> investment id
//	<prefix>:investments:investor:<id>   set of investment ids
//	<prefix>:investments:bond:<id>       set of investment ids
//	<prefix>:users                       user id -> User
//	<prefix>:users:email                 lowercased email -> user id
//	<prefix>:projects                    project id -> Project
//	<prefix>:projects:bond:<id>          set of project ids
//	<prefix>:projects:manager:<id>       set of project ids
//	<prefix>:impactMetrics               metric id -> Metric
//	<prefix>:impactMetrics:project:<id>  set of metric ids
//	<prefix>:currentUser:<token id>      user id (session pointer, with TTL)
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultMaxRetries = 8

type Store struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
}

func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "gb"
	}
	return &Store{rdb: rdb, prefix: prefix, maxRetries: defaultMaxRetries}
}

func (s *Store) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *Store) bondsKey() string                  { return s.key("bonds") }
func (s *Store) investmentsKey() string            { return s.key("investments") }
func (s *Store) txIndexKey() string                { return s.key("investments", "tx") }
func (s *Store) investorIndexKey(id string) string { return s.key("investments", "investor", id) }
func (s *Store) bondIndexKey(id string) string     { return s.key("investments", "bond", id) }
func (s *Store) usersKey() string                  { return s.key("users") }
func (s *Store) emailIndexKey() string             { return s.key("users", "email") }
func (s *Store) sessionKey(tokenID string) string  { return s.key("currentUser", tokenID) }
func (s *Store) projectsKey() string               { return s.key("projects") }
func (s *Store) metricsKey() string                { return s.key("impactMetrics") }

func (s *Store) projectBondIndexKey(id string) string    { return s.key("projects", "bond", id) }
func (s *Store) projectManagerIndexKey(id string) string { return s.key("projects", "manager", id) }
func (s *Store) metricProjectIndexKey(id string) string  { return s.key("impactMetrics", "project", id) }

// collectionKeys are watched by every unit of work; each write touches one of them.
func (s *Store) collectionKeys() []string {
	return []string{s.bondsKey(), s.investmentsKey(), s.usersKey(), s.projectsKey(), s.metricsKey()}
}

func getJSON[T any](ctx context.Context, c redis.Cmdable, key, field string, notFound error) (*T, error) {
	raw, err := c.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", key, field, err)
	}
	return &out, nil
}

func getManyJSON[T any](ctx context.Context, c redis.Cmdable, key string, fields []string) ([]T, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	vals, err := c.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // dangling index entry
		}
		var rec T
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", key, fields[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func allJSON[T any](ctx context.Context, c redis.Cmdable, key string) ([]T, error) {
	m, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(m))
	for field, s := range m {
		var rec T
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", key, field, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
