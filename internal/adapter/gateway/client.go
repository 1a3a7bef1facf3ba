// Package gateway is the HTTP client for the platform's JSON API. Every call
// yields a Response carrying either Data or a user-facing Error string.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	domainPayment "greenbonds/internal/domain/payment"

	"go.uber.org/zap"
)

const (
	MsgDefault = "An error occurred"
	MsgNetwork = "Network error. Please check your connection."
)

// Response is the uniform result of a call: Data on 2xx, Error otherwise.
// Status is 0 when no HTTP answer was received or it could not be decoded.
// Message keeps the body's "message" field of a failed call, if any.
type Response[T any] struct {
	Data    *T
	Error   string
	Message string
	Status  int
}

func (r Response[T]) OK() bool { return r.Error == "" }

// Err converts the response into a typed error: wrapped domainPayment.ErrNetwork
// for connectivity failures, *domainPayment.RemoteError for non-2xx answers.
func (r Response[T]) Err() error {
	if r.Error == "" {
		return nil
	}
	if r.Status == 0 {
		return fmt.Errorf("%w: %s", domainPayment.ErrNetwork, r.Error)
	}
	return &domainPayment.RemoteError{Status: r.Status, Message: r.Error}
}

// TokenStore holds the bearer token between calls (the browser's auth_token).
type TokenStore interface {
	Token() string
	SetToken(tok string)
}

type MemoryTokens struct {
	mu  sync.RWMutex
	tok string
}

func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok
}

func (m *MemoryTokens) SetToken(tok string) {
	m.mu.Lock()
	m.tok = tok
	m.mu.Unlock()
}

type Client struct {
	baseURL string
	hc      *http.Client
	tokens  TokenStore
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithTokenStore(ts TokenStore) Option   { return func(c *Client) { c.tokens = ts } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.log = l } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
		tokens:  &MemoryTokens{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string { return c.tokens.Token() }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) Response[T] {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Response[T]{Error: MsgNetwork}
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return Response[T]{Error: MsgNetwork}
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("path", path), zap.Error(err))
		return Response[T]{Error: MsgNetwork}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("api response read failed", zap.String("path", path), zap.Error(err))
		return Response[T]{Error: MsgNetwork}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.Unmarshal(raw, &eb); err != nil {
			// an unparseable body is treated like no answer at all
			return Response[T]{Error: MsgNetwork}
		}
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		if msg == "" {
			msg = MsgDefault
		}
		return Response[T]{Error: msg, Message: eb.Message, Status: resp.StatusCode}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("api response decode failed", zap.String("path", path), zap.Error(err))
		return Response[T]{Error: MsgNetwork}
	}
	return Response[T]{Data: &out, Status: resp.StatusCode}
}
