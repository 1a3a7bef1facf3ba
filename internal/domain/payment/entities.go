// Package payment holds the provider-facing value types of the checkout flow.
package payment

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks a call that never produced a usable response.
	ErrNetwork = errors.New("network error")
	// ErrProviderUnauthorized is returned when the provider rejects our credentials.
	ErrProviderUnauthorized = errors.New("payment provider authentication failed")
)

// Order is the provider's order record; Amount is in minor units (paise).
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity,omitempty"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

type OrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

// Checkout is what the browser widget needs to open: the order and our public key id.
type Checkout struct {
	Order Order  `json:"order"`
	Key   string `json:"key"`
}

// Result is the success payload relayed from the checkout widget.
type Result struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

func (r Result) Complete() bool {
	return r.PaymentID != "" && r.OrderID != "" && r.Signature != ""
}

// Failure mirrors the widget's payment.failed error object.
type Failure struct {
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Source      string            `json:"source,omitempty"`
	Step        string            `json:"step,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (f Failure) Error() string {
	if f.Description == "" {
		return "payment failed: " + f.Code
	}
	return fmt.Sprintf("payment failed: %s (%s)", f.Description, f.Code)
}

// RemoteError is a non-2xx answer from the payment backend.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string { return fmt.Sprintf("remote %d: %s", e.Status, e.Message) }

// Opener hands an order to a checkout and reports the outcome through exactly
// one of the two callbacks.
type Opener interface {
	Open(ctx context.Context, order Order, key string, onSuccess func(Result), onFailure func(Failure)) error
}

type outcome struct {
	res  Result
	fail *Failure
}

// Await opens the checkout and blocks until it reports back. A failure
// callback is returned as the Failure error; a cancelled ctx returns ctx.Err().
func Await(ctx context.Context, o Opener, order Order, key string) (Result, error) {
	ch := make(chan outcome, 1)
	send := func(out outcome) {
		select {
		case ch <- out:
		default: // a second callback is dropped
		}
	}
	err := o.Open(ctx, order, key,
		func(r Result) { send(outcome{res: r}) },
		func(f Failure) { send(outcome{fail: &f}) },
	)
	if err != nil {
		return Result{}, err
	}
	select {
	case out := <-ch:
		if out.fail != nil {
			return Result{}, *out.fail
		}
		return out.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
