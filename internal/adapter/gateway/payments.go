package gateway

import (
	"context"

	domainPayment "greenbonds/internal/domain/payment"
)

// Payments adapts the client to the investment flow's (value, error) contract.
type Payments struct{ c *Client }

func NewPayments(c *Client) *Payments { return &Payments{c: c} }

func (p *Payments) CreateOrder(ctx context.Context, amount float64, currency string) (*domainPayment.Checkout, error) {
	res := p.c.CreateOrder(ctx, CreateOrderInput{Amount: amount, Currency: currency})
	// the checkout shows message || error for a rejected order
	if res.Status != 0 && res.Message != "" {
		return nil, &domainPayment.RemoteError{Status: res.Status, Message: res.Message}
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (p *Payments) VerifyPayment(ctx context.Context, r domainPayment.Result) error {
	return p.c.VerifyPayment(ctx, r).Err()
}
