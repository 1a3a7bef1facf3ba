package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	domainPayment "greenbonds/internal/domain/payment"
)

// ----- test doubles -----

type fakeProvider struct {
	createFn func(ctx context.Context, in domainPayment.OrderRequest) (*domainPayment.Order, error)
	verifyFn func(r domainPayment.Result) error
	lastReq  domainPayment.OrderRequest
}

func (f *fakeProvider) CreateOrder(ctx context.Context, in domainPayment.OrderRequest) (*domainPayment.Order, error) {
	f.lastReq = in
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return &domainPayment.Order{ID: "order_1", Amount: in.Amount, Currency: in.Currency, Receipt: in.Receipt, Status: "created"}, nil
}

func (f *fakeProvider) VerifySignature(r domainPayment.Result) error {
	if f.verifyFn != nil {
		return f.verifyFn(r)
	}
	return nil
}

func (f *fakeProvider) KeyID() string { return "rzp_test_key" }

func amount(v float64) *float64 { return &v }

// ----- tests -----

func TestCreateOrder(t *testing.T) {
	unauthorized := errors.New("401 unauthorized")

	tests := []struct {
		name      string
		in        CreateOrderInput
		createErr error
		wantErr   error
		check     func(t *testing.T, p *fakeProvider, out *CheckoutDTO)
	}{
		{
			name: "converts to paise with defaults",
			in:   CreateOrderInput{Amount: amount(5000)},
			check: func(t *testing.T, p *fakeProvider, out *CheckoutDTO) {
				if p.lastReq.Amount != 500000 || p.lastReq.Currency != "INR" || p.lastReq.PaymentCapture != 1 {
					t.Fatalf("request = %+v", p.lastReq)
				}
				if p.lastReq.Receipt != "receipt_fixed" {
					t.Fatalf("receipt = %q", p.lastReq.Receipt)
				}
				if out.Key != "rzp_test_key" || out.Order.ID != "order_1" {
					t.Fatalf("checkout = %+v", out)
				}
			},
		},
		{
			name: "keeps caller receipt and currency",
			in:   CreateOrderInput{Amount: amount(19.99), Currency: "usd", Receipt: "r-1"},
			check: func(t *testing.T, p *fakeProvider, out *CheckoutDTO) {
				if p.lastReq.Amount != 1999 || p.lastReq.Currency != "USD" || p.lastReq.Receipt != "r-1" {
					t.Fatalf("request = %+v", p.lastReq)
				}
			},
		},
		{name: "missing amount", in: CreateOrderInput{}, wantErr: ErrAmountRequired},
		{name: "zero amount", in: CreateOrderInput{Amount: amount(0)}, wantErr: ErrInvalidAmount},
		{name: "negative amount", in: CreateOrderInput{Amount: amount(-5)}, wantErr: ErrInvalidAmount},
		{
			name:      "provider auth failure",
			in:        CreateOrderInput{Amount: amount(1000)},
			createErr: errors.Join(unauthorized, domainPayment.ErrProviderUnauthorized),
			wantErr:   ErrProviderAuth,
		},
		{
			name:      "other provider failure",
			in:        CreateOrderInput{Amount: amount(1000)},
			createErr: unauthorized,
			wantErr:   unauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			if tt.createErr != nil {
				p.createFn = func(context.Context, domainPayment.OrderRequest) (*domainPayment.Order, error) {
					return nil, tt.createErr
				}
			}
			uc := NewUsecase(p, 8080, "", nil)
			uc.receipt = func() string { return "receipt_fixed" }

			out, err := uc.CreateOrder(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateOrder err: %v", err)
			}
			tt.check(t, p, out)
		})
	}
}

func TestCreateOrder_OtherFailureIsOrderError(t *testing.T) {
	p := &fakeProvider{createFn: func(context.Context, domainPayment.OrderRequest) (*domainPayment.Order, error) {
		return nil, errors.New("boom")
	}}
	_, err := NewUsecase(p, 0, "INR", nil).CreateOrder(context.Background(), CreateOrderInput{Amount: amount(1)})
	var oe *OrderError
	if !errors.As(err, &oe) || oe.Error() != "boom" {
		t.Fatalf("want *OrderError(boom), got %v", err)
	}
}

func TestVerifyPayment(t *testing.T) {
	good := domainPayment.Result{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}
	sigErr := errors.New("signature mismatch")

	uc := NewUsecase(&fakeProvider{verifyFn: func(r domainPayment.Result) error {
		if r.Signature != "sig" {
			return sigErr
		}
		return nil
	}}, 0, "", nil)

	if err := uc.VerifyPayment(context.Background(), good); err != nil {
		t.Fatalf("VerifyPayment err: %v", err)
	}

	missing := good
	missing.Signature = ""
	if err := uc.VerifyPayment(context.Background(), missing); !errors.Is(err, ErrMissingPaymentData) {
		t.Fatalf("want ErrMissingPaymentData, got %v", err)
	}

	bad := good
	bad.Signature = "nope"
	err := uc.VerifyPayment(context.Background(), bad)
	var ve *VerificationError
	if !errors.As(err, &ve) || !errors.Is(err, sigErr) {
		t.Fatalf("want *VerificationError wrapping cause, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	got := NewUsecase(&fakeProvider{}, 5000, "", nil).Config()
	if got.RazorpayKeyID != "rzp_test_key" || got.Port != 5000 {
		t.Fatalf("Config = %+v", got)
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := map[float64]int64{1000: 100000, 19.99: 1999, 0.015: 1, 15_000_000: 1_500_000_000}
	for in, want := range cases {
		if got := ToMinorUnits(in); got != want {
			t.Fatalf("ToMinorUnits(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestDirect_MapsErrorsToRemote(t *testing.T) {
	p := &fakeProvider{
		createFn: func(context.Context, domainPayment.OrderRequest) (*domainPayment.Order, error) {
			return nil, domainPayment.ErrProviderUnauthorized
		},
		verifyFn: func(domainPayment.Result) error { return errors.New("bad sig") },
	}
	d := NewDirect(NewUsecase(p, 0, "", nil))

	_, err := d.CreateOrder(context.Background(), 1000, "INR")
	var re *domainPayment.RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusUnauthorized || re.Message != AuthFailedMessage {
		t.Fatalf("CreateOrder remote = %+v (%v)", re, err)
	}

	err = d.VerifyPayment(context.Background(), domainPayment.Result{PaymentID: "p", OrderID: "o", Signature: "s"})
	if !errors.As(err, &re) || re.Status != http.StatusBadRequest || re.Message != "verification failed" {
		t.Fatalf("VerifyPayment remote = %+v (%v)", re, err)
	}

	rejected := NewDirect(NewUsecase(&fakeProvider{
		createFn: func(context.Context, domainPayment.OrderRequest) (*domainPayment.Order, error) {
			return nil, errors.New("BAD_REQUEST_ERROR: amount exceeds maximum")
		},
	}, 0, "", nil))
	_, err = rejected.CreateOrder(context.Background(), 1000, "INR")
	if !errors.As(err, &re) || re.Status != http.StatusInternalServerError || re.Message != "BAD_REQUEST_ERROR: amount exceeds maximum" {
		t.Fatalf("CreateOrder rejected = %+v (%v)", re, err)
	}

	ok := NewDirect(NewUsecase(&fakeProvider{}, 0, "", nil))
	co, err := ok.CreateOrder(context.Background(), 2500, "")
	if err != nil || co.Order.Amount != 250000 || co.Key != "rzp_test_key" {
		t.Fatalf("CreateOrder = %+v, %v", co, err)
	}
}
