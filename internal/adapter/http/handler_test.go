package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"greenbonds/internal/adapter/checkout"
	"greenbonds/internal/adapter/middleware"
	"greenbonds/internal/domain/bond"
	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/internal/testutil/memstore"
	"greenbonds/internal/usecase/auth"
	"greenbonds/internal/usecase/investment"
	"greenbonds/internal/usecase/marketplace"
	"greenbonds/internal/usecase/payment"
	"greenbonds/internal/usecase/portfolio"
)

// -------- helpers --------

const goodSignature = "sig_ok"

// fakeProvider stands in for Razorpay: sequential order ids and one accepted signature.
type fakeProvider struct {
	mu       sync.Mutex
	n        int
	orderErr error
	last     domainPayment.OrderRequest
}

func (p *fakeProvider) CreateOrder(ctx context.Context, in domainPayment.OrderRequest) (*domainPayment.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = in
	if p.orderErr != nil {
		return nil, p.orderErr
	}
	p.n++
	return &domainPayment.Order{
		ID:       fmt.Sprintf("order_%d", p.n),
		Entity:   "order",
		Amount:   in.Amount,
		Currency: in.Currency,
		Receipt:  in.Receipt,
		Status:   "created",
	}, nil
}

func (p *fakeProvider) VerifySignature(r domainPayment.Result) error {
	if r.Signature != goodSignature {
		return errors.New("signature mismatch")
	}
	return nil
}

func (p *fakeProvider) KeyID() string { return "rzp_test_key" }

type testApp struct {
	e        *echo.Echo
	store    *memstore.Store
	provider *fakeProvider
	hosted   *checkout.Hosted
	tracker  *investment.Tracker
	auth     *auth.Usecase
}

func solarBond() *bond.Bond {
	return &bond.Bond{
		BondID:            "bond-001",
		IssuerID:          "issuer-1",
		IssuerName:        "Green Energy Corp",
		BondName:          "Solar Infrastructure Bond 2024",
		BondType:          bond.Type("green_bond"),
		FaceValue:         1000,
		CouponRate:        4.5,
		Currency:          "INR",
		MinimumInvestment: 1000,
		TotalAmount:       50000000,
		AmountRaised:      35000000,
		RiskRating:        "AA",
		Status:            bond.StatusActive,
		MaturityDate:      time.Date(2029, 1, 15, 0, 0, 0, 0, time.UTC),
		ProjectCategories: []string{"Solar Energy"},
	}
}

func windBond() *bond.Bond {
	return &bond.Bond{
		BondID:            "bond-002",
		IssuerID:          "issuer-2",
		IssuerName:        "Coastal Wind Ltd",
		BondName:          "Offshore Wind Bond",
		BondType:          bond.Type("climate_bond"),
		FaceValue:         5000,
		CouponRate:        5.2,
		Currency:          "INR",
		MinimumInvestment: 5000,
		TotalAmount:       10000000,
		AmountRaised:      1000000,
		RiskRating:        "A",
		Status:            bond.StatusActive,
		MaturityDate:      time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC),
		ProjectCategories: []string{"Wind Energy"},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	for _, b := range []*bond.Bond{solarBond(), windBond()} {
		if err := store.Repos().Bonds.Create(ctx, b); err != nil {
			t.Fatalf("seed bond: %v", err)
		}
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	provider := &fakeProvider{}
	payments := payment.NewUsecase(provider, 5000, "INR", nil)
	hosted := checkout.NewHosted(checkout.LoaderFunc(func(context.Context) error { return nil }), nil)
	invest := investment.NewUsecase(store, payment.NewDirect(payments), hosted, investment.DefaultParams(), nil)
	tracker := investment.NewTracker(invest, time.Minute, 0, nil)
	t.Cleanup(tracker.Close)

	authUC := auth.NewUsecase(store.Repos().Users, store, auth.NewTokenIssuer("test-secret", 0), nil, auth.WithBcryptCost(bcrypt.MinCost))

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	Register(e, Handlers{
		Payments:  NewPaymentHandler(payments, nil),
		Auth:      NewAuthHandler(authUC, nil),
		Bonds:     NewBondHandler(marketplace.NewUsecase(store.Repos().Bonds), tracker, nil),
		Checkout:  NewCheckoutHandler(hosted, tracker),
		Dashboard: NewDashboardHandler(portfolio.NewUsecase(store.Repos().Bonds, store.Repos().Investments, store.Repos().Impact), nil),
	}, Guards{
		RequireAuth: middleware.RequireAuth(authUC),
		Idempotency: middleware.Idempotency(rdb, middleware.IdempotencyConfig{TTL: time.Minute, Identify: middleware.UserID, Optional: true}),
	})

	return &testApp{e: e, store: store, provider: provider, hosted: hosted, tracker: tracker, auth: authUC}
}

func mustJSON(v any) io.Reader {
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func (a *testApp) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = mustJSON(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user and returns the Authorization header for them.
func (a *testApp) signUp(t *testing.T, email, userType string) (map[string]string, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email": email, "password": "secret123", "firstName": "Asha", "lastName": "Rao", "userType": userType,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, rec, &out)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + out.AccessToken}, out.User.ID
}

func idem(hdr map[string]string, key string) map[string]string {
	out := map[string]string{
		middleware.HeaderIdempotencyKey: key,
		middleware.HeaderRequestAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range hdr {
		out[k] = v
	}
	return out
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	decode(t, rec, &er)
	return er
}

// -------- tests --------

func TestHealth_ReturnsOKWithRFC3339NanoUTC(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	start := time.Now().UTC()

	if err := Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	ct := rec.Header().Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var body struct {
		Status string `json:"status"`
		Time   string `json:"time"`
	}
	decode(t, rec, &body)
	if body.Status != "ok" {
		t.Fatalf(`expected status "ok", got %q`, body.Status)
	}
	parsed, err := time.Parse(time.RFC3339Nano, body.Time)
	if err != nil {
		t.Fatalf("time not RFC3339Nano: %v (value=%q)", err, body.Time)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", parsed.Location())
	}
	now := time.Now().UTC()
	if parsed.Before(start.Add(-2*time.Second)) || parsed.After(now.Add(2*time.Second)) {
		t.Fatalf("time not within expected window: parsed=%v start=%v now=%v", parsed, start, now)
	}
}

func TestRegister_MountsPaymentBackendTwice(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/health", "/api/health", "/config", "/api/config"} {
		rec := app.do(t, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestRegister_NilGuardsPassThrough(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	Register(e, Handlers{}, Guards{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unmounted route status = %d, want 404", rec.Code)
	}
}
