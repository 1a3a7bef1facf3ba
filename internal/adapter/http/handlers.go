package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Payments  *PaymentHandler
	Auth      *AuthHandler
	Bonds     *BondHandler
	Checkout  *CheckoutHandler
	Dashboard *DashboardHandler
}

// Guards are the route middlewares: RequireAuth resolves the bearer token and
// Idempotency dedupes mutating calls. Either may be nil.
type Guards struct {
	RequireAuth echo.MiddlewareFunc
	Idempotency echo.MiddlewareFunc
}

func pass(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return pass
	}
	return m
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Register mounts the payment backend at the root (where the checkout client
// expects it) and again under /api next to the rest of the platform.
func Register(e *echo.Echo, h Handlers, g Guards) {
	authn, idem := orPass(g.RequireAuth), orPass(g.Idempotency)

	e.GET("/health", Health)
	api := e.Group("/api")
	api.GET("/health", Health)

	if h.Payments != nil {
		for _, r := range []interface {
			GET(string, echo.HandlerFunc, ...echo.MiddlewareFunc) *echo.Route
			POST(string, echo.HandlerFunc, ...echo.MiddlewareFunc) *echo.Route
		}{e, api} {
			r.GET("/config", h.Payments.Config)
			r.POST("/create-order", h.Payments.CreateOrder, idem)
			r.POST("/verify-payment", h.Payments.VerifyPayment)
		}
	}

	if h.Auth != nil {
		a := api.Group("/auth")
		a.POST("/register", h.Auth.Register)
		a.POST("/login", h.Auth.Login)
		a.POST("/logout", h.Auth.Logout, authn)
		a.GET("/profile", h.Auth.Profile, authn)
		a.PUT("/profile", h.Auth.UpdateProfile, authn)
		a.POST("/change-password", h.Auth.ChangePassword, authn)
		a.POST("/verify-token", h.Auth.VerifyToken, authn)
	}

	if h.Bonds != nil {
		api.GET("/bonds", h.Bonds.ListBonds)
		api.GET("/bonds/:bond_id", h.Bonds.GetBond)
		api.POST("/bonds/:bond_id/investments", h.Bonds.Invest, authn, idem)
		api.GET("/investment-attempts/:attempt_id", h.Bonds.Attempt, authn)
	}

	if h.Checkout != nil {
		api.GET("/checkout/:order_id", h.Checkout.Options, authn)
		api.POST("/checkout/:order_id/success", h.Checkout.Success, authn)
		api.POST("/checkout/:order_id/failure", h.Checkout.Failure, authn)
	}

	if h.Dashboard != nil {
		api.GET("/dashboard/portfolio", h.Dashboard.Portfolio, authn)
		api.GET("/dashboard/issuer", h.Dashboard.Issuer, authn)
		api.GET("/dashboard/projects", h.Dashboard.Projects, authn)
	}
}
