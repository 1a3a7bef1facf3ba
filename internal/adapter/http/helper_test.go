package http

import (
	"strings"

	domainPayment "greenbonds/internal/domain/payment"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func paymentCancelled() domainPayment.Failure {
	return domainPayment.Failure{Code: "PAYMENT_CANCELLED", Description: "Payment cancelled"}
}
