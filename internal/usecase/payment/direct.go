package payment

import (
	"context"
	"errors"
	"net/http"

	domainPayment "greenbonds/internal/domain/payment"
)

// Direct serves the investment flow from the in-process payment usecase,
// reporting failures as the same *domainPayment.RemoteError the HTTP API would.
type Direct struct{ uc *Usecase }

func NewDirect(uc *Usecase) *Direct { return &Direct{uc: uc} }

func (d *Direct) CreateOrder(ctx context.Context, amount float64, currency string) (*domainPayment.Checkout, error) {
	out, err := d.uc.CreateOrder(ctx, CreateOrderInput{Amount: &amount, Currency: currency})
	if err != nil {
		return nil, remote(err)
	}
	return out, nil
}

func (d *Direct) VerifyPayment(ctx context.Context, r domainPayment.Result) error {
	if err := d.uc.VerifyPayment(ctx, r); err != nil {
		return remote(err)
	}
	return nil
}

// remote maps a usecase error to the status and the human message of the HTTP
// answer, the same text the checkout client would show.
func remote(err error) error {
	var (
		orderErr  *OrderError
		verifyErr *VerificationError
	)
	switch {
	case errors.Is(err, ErrProviderAuth):
		return &domainPayment.RemoteError{Status: http.StatusUnauthorized, Message: AuthFailedMessage}
	case errors.As(err, &orderErr):
		return &domainPayment.RemoteError{Status: http.StatusInternalServerError, Message: orderErr.Error()}
	case errors.As(err, &verifyErr):
		return &domainPayment.RemoteError{Status: http.StatusBadRequest, Message: verifyErr.Error()}
	default:
		return &domainPayment.RemoteError{Status: http.StatusBadRequest, Message: err.Error()}
	}
}
