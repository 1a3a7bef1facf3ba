package investment

import (
	"context"
	"errors"
	"fmt"

	domainPayment "greenbonds/internal/domain/payment"
)

const (
	MsgInvalidAmount      = "Please enter a valid investment amount"
	MsgNotSignedIn        = "Please sign in to make an investment"
	MsgPaymentFailed      = "Payment failed or cancelled"
	MsgVerificationFailed = "Payment verification failed. Please contact support."
	MsgNetwork            = "Network error. Please check your connection."
)

type Reason string

const (
	ReasonInvalidAmount  Reason = "invalid_amount"
	ReasonBelowMinimum   Reason = "below_minimum"
	ReasonAboveRemaining Reason = "above_remaining"
	ReasonNotSignedIn    Reason = "not_signed_in"
)

// ValidationError is raised before any I/O; nothing has changed.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OrderCreationError carries the gateway's message for a rejected order.
type OrderCreationError struct {
	Message string
	Cause   error
}

func (e *OrderCreationError) Error() string { return e.Message }
func (e *OrderCreationError) Unwrap() error { return e.Cause }

// PaymentFailedError covers provider failures and user cancellation.
type PaymentFailedError struct {
	Message string
	Cause   error
}

func (e *PaymentFailedError) Error() string { return e.Message }
func (e *PaymentFailedError) Unwrap() error { return e.Cause }

// Failure returns the provider's failure details when there are any.
func (e *PaymentFailedError) Failure() (domainPayment.Failure, bool) {
	var f domainPayment.Failure
	ok := errors.As(e.Cause, &f)
	return f, ok
}

// VerificationError means the server did not accept the payment; nothing was written.
type VerificationError struct{ Cause error }

func (e *VerificationError) Error() string { return MsgVerificationFailed }
func (e *VerificationError) Unwrap() error { return e.Cause }

// NetworkError wraps a step that failed for lack of connectivity.
type NetworkError struct{ Cause error }

func (e *NetworkError) Error() string { return MsgNetwork }
func (e *NetworkError) Unwrap() error { return e.Cause }

// CommitError is a verified payment whose records could not be written.
type CommitError struct {
	PaymentID string
	Cause     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("Payment %s was received but the investment could not be recorded. Please contact support.", e.PaymentID)
}
func (e *CommitError) Unwrap() error { return e.Cause }

var (
	ErrInvalidTransition = errors.New("invalid attempt state transition")
	ErrTrackerClosed     = errors.New("investment tracker is shut down")
)

// UserMessage turns any error from the flow into the text shown to the investor.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		vf *VerificationError
		pf *PaymentFailedError
		ce *CommitError
		ne *NetworkError
		oe *OrderCreationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &vf):
		return vf.Error()
	case errors.As(err, &pf):
		return pf.Message
	case errors.As(err, &ce):
		return ce.Error()
	case errors.As(err, &ne):
		return ne.Error()
	case errors.As(err, &oe):
		return oe.Message
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgPaymentFailed
	default:
		return err.Error()
	}
}

// Kind names the error class for API clients.
func Kind(err error) string {
	var (
		ve *ValidationError
		vf *VerificationError
		pf *PaymentFailedError
		ce *CommitError
		ne *NetworkError
		oe *OrderCreationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &vf):
		return "verification"
	case errors.As(err, &pf):
		return "payment_failed"
	case errors.As(err, &ce):
		return "commit"
	case errors.As(err, &ne):
		return "network"
	case errors.As(err, &oe):
		return "order_creation"
	default:
		return "internal"
	}
}
