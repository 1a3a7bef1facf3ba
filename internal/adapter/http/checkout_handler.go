package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"greenbonds/internal/adapter/checkout"
	"greenbonds/internal/adapter/middleware"
	domainPayment "greenbonds/internal/domain/payment"
)

// OrderOwners maps an open checkout's order id to the investor paying it.
type OrderOwners interface {
	OwnerOf(orderID string) (string, bool)
}

// CheckoutHandler is the browser's side of the hosted checkout: it reads the
// widget options and relays the widget's outcome back to the waiting attempt.
// Only the investor who started the attempt may see or settle its checkout.
type CheckoutHandler struct {
	hosted *checkout.Hosted
	owners OrderOwners
}

func NewCheckoutHandler(h *checkout.Hosted, owners OrderOwners) *CheckoutHandler {
	return &CheckoutHandler{hosted: h, owners: owners}
}

type orderPathReq struct {
	OrderID string `param:"order_id" json:"order_id" validate:"required,orderid"`
}

type checkoutSuccessReq struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"  validate:"required"`
}

// checkoutFailureReq mirrors the widget's payment.failed event body.
type checkoutFailureReq struct {
	Error domainPayment.Failure `json:"error"`
}

func (h *CheckoutHandler) orderID(c echo.Context) (string, error) {
	req := orderPathReq{OrderID: c.Param("order_id")}
	return req.OrderID, c.Validate(&req)
}

// owned hides other investors' orders behind the same 404 as a closed one.
func (h *CheckoutHandler) owned(c echo.Context, orderID string) bool {
	if h.owners == nil {
		return true
	}
	uid, ok := h.owners.OwnerOf(orderID)
	return ok && uid != "" && uid == middleware.UserID(c)
}

func (h *CheckoutHandler) unknown(c echo.Context, err error) error {
	if errors.Is(err, checkout.ErrUnknownOrder) {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	return errorJSON(c, http.StatusInternalServerError, err.Error())
}

func (h *CheckoutHandler) Options(c echo.Context) error {
	id, err := h.orderID(c)
	if err != nil {
		return validationFailed(c, err)
	}
	if !h.owned(c, id) {
		return h.unknown(c, checkout.ErrUnknownOrder)
	}
	opts, err := h.hosted.Options(id)
	if err != nil {
		return h.unknown(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *CheckoutHandler) Success(c echo.Context) error {
	id, err := h.orderID(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req checkoutSuccessReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	if req.OrderID != "" && req.OrderID != id {
		return errorJSON(c, http.StatusBadRequest, "order id mismatch")
	}
	if !h.owned(c, id) {
		return h.unknown(c, checkout.ErrUnknownOrder)
	}
	err = h.hosted.Succeed(id, domainPayment.Result{PaymentID: req.PaymentID, OrderID: id, Signature: req.Signature})
	if err != nil {
		return h.unknown(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "received"})
}

func (h *CheckoutHandler) Failure(c echo.Context) error {
	id, err := h.orderID(c)
	if err != nil {
		return validationFailed(c, err)
	}
	var req checkoutFailureReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Error.Code == "" {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "error.code", Message: "is required"}},
		})
	}
	if !h.owned(c, id) {
		return h.unknown(c, checkout.ErrUnknownOrder)
	}
	if err := h.hosted.Fail(id, req.Error); err != nil {
		return h.unknown(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "received"})
}
