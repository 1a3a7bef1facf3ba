// Package checkout parks payment attempts until the browser widget reports
// the outcome over HTTP.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	domainPayment "greenbonds/internal/domain/payment"

	"go.uber.org/zap"
)

const (
	DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

	merchantName = "GreenBonds Platform"
	description  = "Bond Investment"
	themeColor   = "#16a34a"
)

var (
	ErrScriptLoad   = errors.New("Razorpay script failed to load")
	ErrUnknownOrder = errors.New("no open checkout for order")
	ErrAlreadyOpen  = errors.New("checkout already open for order")
)

// Loader makes the provider's checkout script available.
type Loader interface {
	Load(ctx context.Context) error
}

type LoaderFunc func(ctx context.Context) error

func (f LoaderFunc) Load(ctx context.Context) error { return f(ctx) }

// HTTPLoader checks that the checkout script is being served.
type HTTPLoader struct {
	URL string
	HC  *http.Client
}

func (l HTTPLoader) Load(ctx context.Context) error {
	hc := l.HC
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.URL, nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("script %s: status %d", l.URL, resp.StatusCode)
	}
	return nil
}

// Options is the configuration the browser passes to the checkout widget.
type Options struct {
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
	Modal       struct {
		Escape bool `json:"escape"`
	} `json:"modal"`
	Theme struct {
		Color string `json:"color"`
	} `json:"theme"`
}

type parked struct {
	opts      Options
	onSuccess func(domainPayment.Result)
	onFailure func(domainPayment.Failure)
	stop      func() bool
}

type Hosted struct {
	loader Loader
	log    *zap.Logger

	loadMu sync.Mutex
	loaded bool

	mu      sync.Mutex
	pending map[string]*parked
}

func NewHosted(loader Loader, log *zap.Logger) *Hosted {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hosted{loader: loader, log: log, pending: map[string]*parked{}}
}

var _ domainPayment.Opener = (*Hosted)(nil)

// ensureLoaded loads the script once; a failed load is retried on the next call.
func (h *Hosted) ensureLoaded(ctx context.Context) error {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	if h.loaded {
		return nil
	}
	if err := h.loader.Load(ctx); err != nil {
		h.log.Warn("checkout script load failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrScriptLoad, err)
	}
	h.loaded = true
	return nil
}

// Open parks the attempt for order.ID. Exactly one of onSuccess/onFailure
// fires: on Succeed, on Fail, or with a cancellation failure when ctx ends.
func (h *Hosted) Open(ctx context.Context, order domainPayment.Order, key string, onSuccess func(domainPayment.Result), onFailure func(domainPayment.Failure)) error {
	if err := h.ensureLoaded(ctx); err != nil {
		return err
	}

	p := &parked{opts: buildOptions(order, key), onSuccess: onSuccess, onFailure: onFailure}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.pending[order.ID]; dup {
		return ErrAlreadyOpen
	}
	h.pending[order.ID] = p
	p.stop = context.AfterFunc(ctx, func() {
		_ = h.Fail(order.ID, domainPayment.Failure{
			Code:        "PAYMENT_CANCELLED",
			Description: "Payment cancelled",
			Source:      "customer",
			Reason:      ctx.Err().Error(),
			Metadata:    map[string]string{"order_id": order.ID},
		})
	})
	h.log.Debug("checkout opened", zap.String("order_id", order.ID), zap.Int64("amount", order.Amount))
	return nil
}

func buildOptions(order domainPayment.Order, key string) Options {
	o := Options{
		Key:         key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        merchantName,
		Description: description,
		OrderID:     order.ID,
	}
	o.Modal.Escape = true
	o.Theme.Color = themeColor
	return o
}

func (h *Hosted) take(orderID string) *parked {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[orderID]
	if !ok {
		return nil
	}
	delete(h.pending, orderID)
	return p
}

// Succeed relays the widget's handler(response) for orderID.
func (h *Hosted) Succeed(orderID string, r domainPayment.Result) error {
	p := h.take(orderID)
	if p == nil {
		return ErrUnknownOrder
	}
	p.stop()
	if r.OrderID == "" {
		r.OrderID = orderID
	}
	p.onSuccess(r)
	return nil
}

// Fail relays the widget's payment.failed event for orderID.
func (h *Hosted) Fail(orderID string, f domainPayment.Failure) error {
	p := h.take(orderID)
	if p == nil {
		return ErrUnknownOrder
	}
	p.stop()
	h.log.Info("checkout failed",
		zap.String("order_id", orderID),
		zap.String("code", f.Code),
		zap.String("reason", f.Reason))
	p.onFailure(f)
	return nil
}

// Options returns the widget configuration for an open checkout.
func (h *Hosted) Options(orderID string) (Options, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[orderID]
	if !ok {
		return Options{}, ErrUnknownOrder
	}
	return p.opts, nil
}

func (h *Hosted) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}
