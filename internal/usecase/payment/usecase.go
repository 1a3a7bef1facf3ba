package payment

import (
	"context"
	"errors"
	"math"
	"strings"

	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Provider is the payment processor: order creation and signature checks.
type Provider interface {
	CreateOrder(ctx context.Context, in domainPayment.OrderRequest) (*domainPayment.Order, error)
	VerifySignature(r domainPayment.Result) error
	KeyID() string
}

type Usecase struct {
	provider Provider
	port     int
	currency string
	log      *zap.Logger
	receipt  func() string
}

func NewUsecase(p Provider, port int, currency string, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == "" {
		currency = "INR"
	}
	return &Usecase{provider: p, port: port, currency: currency, log: log, receipt: id.NewReceipt}
}

// ToMinorUnits converts a major-unit amount to paise, truncating sub-paise digits.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).IntPart()
}

func (u *Usecase) CreateOrder(ctx context.Context, in CreateOrderInput) (*CheckoutDTO, error) {
	if in.Amount == nil {
		return nil, ErrAmountRequired
	}
	amount := *in.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = u.currency
	}
	receipt := in.Receipt
	if receipt == "" {
		receipt = u.receipt()
	}

	req := domainPayment.OrderRequest{
		Amount:         ToMinorUnits(amount),
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	}
	u.log.Info("creating order",
		zap.Int64("amount_minor", req.Amount),
		zap.String("currency", currency),
		zap.String("receipt", receipt))

	order, err := u.provider.CreateOrder(ctx, req)
	if err != nil {
		u.log.Error("failed to create order", zap.Error(err))
		if errors.Is(err, domainPayment.ErrProviderUnauthorized) {
			return nil, ErrProviderAuth
		}
		return nil, &OrderError{Cause: err}
	}
	u.log.Info("order created", zap.String("order_id", order.ID))
	return &CheckoutDTO{Order: *order, Key: u.provider.KeyID()}, nil
}

func (u *Usecase) VerifyPayment(ctx context.Context, r domainPayment.Result) error {
	if !r.Complete() {
		return ErrMissingPaymentData
	}
	if err := u.provider.VerifySignature(r); err != nil {
		u.log.Warn("payment signature rejected",
			zap.String("order_id", r.OrderID),
			zap.String("payment_id", r.PaymentID),
			zap.Error(err))
		return &VerificationError{Cause: err}
	}
	return nil
}

func (u *Usecase) Config() ConfigDTO {
	return ConfigDTO{RazorpayKeyID: u.provider.KeyID(), Port: u.port}
}
