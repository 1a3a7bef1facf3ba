package payment

import (
	"errors"

	domainPayment "greenbonds/internal/domain/payment"
)

const AuthFailedMessage = "Razorpay authentication failed. Check RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET in your .env and restart the server."

var (
	ErrAmountRequired     = errors.New("amount is required")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrMissingPaymentData = errors.New("missing payment data")
	ErrProviderAuth       = errors.New("authentication_failed")
)

// OrderError wraps any other provider failure while creating an order.
type OrderError struct{ Cause error }

func (e *OrderError) Error() string { return e.Cause.Error() }
func (e *OrderError) Unwrap() error { return e.Cause }

// VerificationError means the checkout signature did not check out.
type VerificationError struct{ Cause error }

func (e *VerificationError) Error() string { return "verification failed" }
func (e *VerificationError) Unwrap() error { return e.Cause }

type CreateOrderInput struct {
	// nil means the caller sent no amount at all
	Amount   *float64
	Currency string
	Receipt  string
}

type ConfigDTO struct {
	RazorpayKeyID string `json:"razorpay_key_id"`
	Port          int    `json:"port"`
}

type CheckoutDTO = domainPayment.Checkout
