// Package session tracks which user a bearer token currently speaks for.
// Entries are keyed by the token id so a logout revokes exactly one token.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found or revoked")

type Store interface {
	Bind(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Resolve(ctx context.Context, tokenID string) (string, error)
	Revoke(ctx context.Context, tokenID string) error
}
