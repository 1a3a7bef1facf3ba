package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"
	HeaderReplayed       = "Idempotent-Replayed"

	// How long a claim survives a handler that never finishes.
	claimTTL = 60 * time.Second
	// Allowed client/server clock skew for X-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type IdempotencyConfig struct {
	TTL    time.Duration
	Prefix string
	// Identify scopes keys to a caller, usually the signed-in user id.
	Identify func(c echo.Context) string
	// Optional lets requests without an Idempotency-Key through unguarded.
	Optional bool
	Log      *zap.Logger
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the same route from the same caller. A different body under the same key, or
// a repeat while the first call still runs, is a 409. Server errors are not
// stored so the client can retry with the same key.
func Idempotency(rdb redis.Cmdable, cfg IdempotencyConfig) echo.MiddlewareFunc {
	if cfg.Prefix == "" {
		cfg.Prefix = "gb"
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	store := replayStore{rdb: rdb, prefix: cfg.Prefix, claimTTL: claimTTL, ttl: cfg.TTL}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			raw := req.Header.Get(HeaderIdempotencyKey)
			if raw == "" {
				if cfg.Optional {
					return next(c)
				}
				return badRequest(c, "missing "+HeaderIdempotencyKey)
			}
			idemKey, ok := normalizeKey(raw)
			if !ok {
				return badRequest(c, "invalid "+HeaderIdempotencyKey+" format")
			}
			at, err := requestAt(req.Header.Get(HeaderRequestAt), time.Now().UTC(), maxClockSkew)
			if err != nil {
				return badRequest(c, err.Error())
			}

			var caller string
			if cfg.Identify != nil {
				caller = cfg.Identify(c)
			}
			k := newRequestKey(req.Method, c.Path(), caller, idemKey)

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			entry := replayEntry{BodyHash: bodyHash(body), RequestAtMS: at.UnixMilli(), CreatedAt: time.Now().UTC()}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			claimed, err := store.claim(ctx, k, entry)
			if err != nil {
				cfg.Log.Error("idempotency store unavailable", zap.String("route", k.route), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				cur, err := store.lookup(ctx, k)
				if err != nil {
					cfg.Log.Warn("idempotency entry unreadable", zap.String("route", k.route), zap.Error(err))
				}
				if cur.BodyHash != "" && cur.BodyHash != entry.BodyHash {
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderIdempotencyKey + " reused with different body"})
				}
				if cur.replayable() {
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(cur.Status, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := store.release(context.Background(), k); err != nil {
					cfg.Log.Warn("idempotency claim not released", zap.String("route", k.route), zap.Error(err))
				}
				return nil
			}
			entry.Status, entry.Body = rec.code, rec.buf.Bytes()
			if err := store.settle(context.Background(), k, entry); err != nil {
				cfg.Log.Warn("idempotency response not stored", zap.String("route", k.route), zap.Error(err))
			}
			return nil
		}
	}
}
