package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	errRequestAtMissing = errors.New("missing " + HeaderRequestAt)
	errRequestAtFormat  = errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
	errRequestAtSkew    = errors.New(HeaderRequestAt + " too skewed")
)

// normalizeKey lowercases an Idempotency-Key and reports whether it is a
// dashed RFC 4122 uuid (versions 1 to 5) or 32 hex digits.
func normalizeKey(raw string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(raw))
	switch len(k) {
	case 32:
		_, err := hex.DecodeString(k)
		return k, err == nil
	case 36:
		u, err := uuid.Parse(k)
		if err != nil || u.Variant() != uuid.RFC4122 {
			return "", false
		}
		return k, u.Version() >= 1 && u.Version() <= 5
	}
	return "", false
}

// requestAt reads X-Request-At as epoch seconds, epoch milliseconds or an
// RFC 3339 time carrying a zone, and rejects it outside now ± skew.
func requestAt(raw string, now time.Time, skew time.Duration) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errRequestAtMissing
	}
	var at time.Time
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		at = time.Unix(n, 0)
		if n > 1e12 {
			at = time.UnixMilli(n)
		}
	} else if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		at = t
	} else {
		return time.Time{}, errRequestAtFormat
	}
	at = at.UTC()
	if at.Before(now.Add(-skew)) || at.After(now.Add(skew)) {
		return at, errRequestAtSkew
	}
	return at, nil
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

// requestKey is what one Idempotency-Key guards: a route as called by one caller.
type requestKey struct {
	caller string
	route  string
	key    string
}

func newRequestKey(method, route, caller, key string) requestKey {
	if caller == "" {
		caller = "anonymous"
	}
	return requestKey{caller: caller, route: strings.ToLower(method) + " " + route, key: key}
}

// replayEntry is a claimed request (Pending) or the response it settled with.
type replayEntry struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	BodyHash    string    `json:"body_hash"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e replayEntry) replayable() bool { return !e.Pending && e.Status != 0 && len(e.Body) > 0 }

// replayStore keeps one entry per requestKey in Redis: a short claim while
// the handler runs, then the settled response until ttl.
type replayStore struct {
	rdb      redis.Cmdable
	prefix   string
	claimTTL time.Duration
	ttl      time.Duration
}

func (s replayStore) redisKey(k requestKey) string {
	return s.prefix + ":idemp:" + k.caller + ":" + k.route + ":" + k.key
}

// claim stores a pending entry unless one already exists.
func (s replayStore) claim(ctx context.Context, k requestKey, e replayEntry) (bool, error) {
	e.Pending = true
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, s.redisKey(k), payload, s.claimTTL).Result()
}

func (s replayStore) lookup(ctx context.Context, k requestKey) (replayEntry, error) {
	var e replayEntry
	raw, err := s.rdb.Get(ctx, s.redisKey(k)).Bytes()
	if err != nil {
		return e, err
	}
	return e, json.Unmarshal(raw, &e)
}

func (s replayStore) settle(ctx context.Context, k requestKey, e replayEntry) error {
	e.Pending = false
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.redisKey(k), payload, s.ttl).Err()
}

// release drops a claim so the same key can be retried.
func (s replayStore) release(ctx context.Context, k requestKey) error {
	return s.rdb.Del(ctx, s.redisKey(k)).Err()
}
