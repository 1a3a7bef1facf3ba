package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/internal/usecase/payment"
)

// PaymentHandler serves the payment backend the checkout flow talks to.
type PaymentHandler struct {
	uc  *payment.Usecase
	log *zap.Logger
}

func NewPaymentHandler(uc *payment.Usecase, log *zap.Logger) *PaymentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandler{uc: uc, log: log}
}

type createOrderReq struct {
	Amount   Amount `json:"amount"`
	Currency string `json:"currency" validate:"omitempty,currency"`
	Receipt  string `json:"receipt"  validate:"omitempty,max=40"`
}

func (h *PaymentHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Config())
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	in := payment.CreateOrderInput{Currency: req.Currency, Receipt: req.Receipt}
	if req.Amount.Set {
		v, ok := req.Amount.Float()
		if !ok {
			return errorJSON(c, http.StatusBadRequest, payment.ErrInvalidAmount.Error())
		}
		in.Amount = &v
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), in)
	var orderErr *payment.OrderError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, out)
	case errors.Is(err, payment.ErrAmountRequired), errors.Is(err, payment.ErrInvalidAmount):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrProviderAuth):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Message: payment.AuthFailedMessage})
	case errors.As(err, &orderErr):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed_to_create_order", Message: orderErr.Error()})
	default:
		h.log.Error("create order", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed_to_create_order")
	}
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req domainPayment.Result
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	err := h.uc.VerifyPayment(c.Request().Context(), req)
	var verifyErr *payment.VerificationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"status": "verified"})
	case errors.Is(err, payment.ErrMissingPaymentData):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &verifyErr):
		resp := ErrorResponse{Error: verifyErr.Error()}
		if verifyErr.Cause != nil {
			resp.Details = []FieldError{{Field: "razorpay_signature", Message: verifyErr.Cause.Error()}}
		}
		return c.JSON(http.StatusBadRequest, resp)
	default:
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
}
