package payment

import (
	"context"
	"errors"
	"testing"
	"time"
)

type openerFunc func(ctx context.Context, order Order, key string, ok func(Result), fail func(Failure)) error

func (f openerFunc) Open(ctx context.Context, order Order, key string, ok func(Result), fail func(Failure)) error {
	return f(ctx, order, key, ok, fail)
}

func TestAwait_Success(t *testing.T) {
	o := openerFunc(func(_ context.Context, order Order, key string, ok func(Result), _ func(Failure)) error {
		go ok(Result{PaymentID: "pay_1", OrderID: order.ID, Signature: "sig"})
		return nil
	})
	got, err := Await(context.Background(), o, Order{ID: "order_1"}, "k")
	if err != nil || got.PaymentID != "pay_1" || got.OrderID != "order_1" {
		t.Fatalf("Await = %+v, %v", got, err)
	}
}

func TestAwait_Failure(t *testing.T) {
	o := openerFunc(func(_ context.Context, _ Order, _ string, ok func(Result), fail func(Failure)) error {
		fail(Failure{Code: "BAD_REQUEST_ERROR", Description: "Payment failed"})
		ok(Result{PaymentID: "late"}) // dropped
		return nil
	})
	_, err := Await(context.Background(), o, Order{ID: "order_1"}, "k")
	var f Failure
	if !errors.As(err, &f) || f.Code != "BAD_REQUEST_ERROR" {
		t.Fatalf("want Failure, got %v", err)
	}
}

func TestAwait_OpenError(t *testing.T) {
	boom := errors.New("script failed to load")
	o := openerFunc(func(context.Context, Order, string, func(Result), func(Failure)) error { return boom })
	if _, err := Await(context.Background(), o, Order{}, "k"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	o := openerFunc(func(context.Context, Order, string, func(Result), func(Failure)) error { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := Await(ctx, o, Order{}, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestResultComplete(t *testing.T) {
	if (Result{PaymentID: "p", OrderID: "o"}).Complete() {
		t.Fatal("missing signature must be incomplete")
	}
	if !(Result{PaymentID: "p", OrderID: "o", Signature: "s"}).Complete() {
		t.Fatal("full result must be complete")
	}
}
