package gateway

import (
	"context"
	"net/http"

	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/internal/domain/user"
)

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	UserType    string `json:"userType"`
	CompanyName string `json:"companyName,omitempty"`
}

type ProfileUpdate struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
}

type AuthResult struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	User        user.User `json:"user"`
}

type UserResult struct {
	Message string    `json:"message,omitempty"`
	Valid   bool      `json:"valid,omitempty"`
	User    user.User `json:"user"`
}

type MessageResult struct {
	Message string `json:"message"`
}

type VerifyResult struct {
	Status string `json:"status"`
}

type ConfigResult struct {
	RazorpayKeyID string `json:"razorpay_key_id"`
	Port          int    `json:"port"`
}

type CreateOrderInput struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
	Receipt  string  `json:"receipt,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) Response[AuthResult] {
	res := do[AuthResult](ctx, c, http.MethodPost, "/auth/register", in)
	if res.Data != nil && res.Data.AccessToken != "" {
		c.tokens.SetToken(res.Data.AccessToken)
	}
	return res
}

func (c *Client) Login(ctx context.Context, email, password string) Response[AuthResult] {
	res := do[AuthResult](ctx, c, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if res.Data != nil && res.Data.AccessToken != "" {
		c.tokens.SetToken(res.Data.AccessToken)
	}
	return res
}

// Logout clears the stored token whatever the server answers.
func (c *Client) Logout(ctx context.Context) Response[MessageResult] {
	res := do[MessageResult](ctx, c, http.MethodPost, "/auth/logout", nil)
	c.tokens.SetToken("")
	return res
}

func (c *Client) Profile(ctx context.Context) Response[UserResult] {
	return do[UserResult](ctx, c, http.MethodGet, "/auth/profile", nil)
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) Response[UserResult] {
	return do[UserResult](ctx, c, http.MethodPut, "/auth/profile", in)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) Response[MessageResult] {
	return do[MessageResult](ctx, c, http.MethodPost, "/auth/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	})
}

func (c *Client) VerifyToken(ctx context.Context) Response[UserResult] {
	return do[UserResult](ctx, c, http.MethodPost, "/auth/verify-token", nil)
}

func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) Response[domainPayment.Checkout] {
	return do[domainPayment.Checkout](ctx, c, http.MethodPost, "/create-order", in)
}

func (c *Client) VerifyPayment(ctx context.Context, r domainPayment.Result) Response[VerifyResult] {
	return do[VerifyResult](ctx, c, http.MethodPost, "/verify-payment", r)
}

func (c *Client) Config(ctx context.Context) Response[ConfigResult] {
	return do[ConfigResult](ctx, c, http.MethodGet, "/config", nil)
}
