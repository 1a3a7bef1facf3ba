// Package razorpay talks to the payment provider's REST API: order creation
// with key/secret basic auth and HMAC verification of checkout signatures.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"greenbonds/internal/domain/payment"
)

const DefaultBaseURL = "https://api.razorpay.com/v1"

var ErrSignatureMismatch = errors.New("razorpay: signature mismatch")

type Client struct {
	baseURL string
	keyID   string
	secret  string
	hc      *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func New(keyID, secret string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		keyID:   keyID,
		secret:  secret,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) KeyID() string { return c.keyID }

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay %d %s: %s", e.Status, e.Code, e.Description)
}

// Is lets errors.Is(err, payment.ErrProviderUnauthorized) match a 401.
func (e *APIError) Is(target error) bool {
	return target == payment.ErrProviderUnauthorized && e.Status == http.StatusUnauthorized
}

type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, in payment.OrderRequest) (*payment.Order, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil && eb.Error.Description != "" {
			apiErr.Code = eb.Error.Code
			apiErr.Description = eb.Error.Description
		}
		return nil, apiErr
	}

	var out payment.Order
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse order: %w (body: %s)", err, string(respBody))
	}
	return &out, nil
}

// Sign returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) VerifySignature(r payment.Result) error {
	want := Sign(c.secret, r.OrderID, r.PaymentID)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(r.Signature))) {
		return ErrSignatureMismatch
	}
	return nil
}
