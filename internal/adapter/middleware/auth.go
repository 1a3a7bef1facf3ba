package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"greenbonds/internal/domain/user"
	"greenbonds/internal/usecase/auth"
)

const (
	ctxUser   = "auth.user"
	ctxClaims = "auth.claims"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*user.User, *auth.Claims, error)
}

func bearer(h string) string {
	const p = "bearer "
	if len(h) > len(p) && strings.EqualFold(h[:len(p)], p) {
		return strings.TrimSpace(h[len(p):])
	}
	return ""
}

// RequireAuth resolves the bearer token and stores the user on the context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, claims, err := a.Authenticate(c.Request().Context(), bearer(c.Request().Header.Get(echo.HeaderAuthorization)))
			switch {
			case errors.Is(err, auth.ErrTokenRequired), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": err.Error()})
			case errors.Is(err, user.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
			case err != nil:
				return err
			}
			c.Set(ctxUser, u)
			c.Set(ctxClaims, claims)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *user.User {
	u, _ := c.Get(ctxUser).(*user.User)
	return u
}

func CurrentClaims(c echo.Context) *auth.Claims {
	cl, _ := c.Get(ctxClaims).(*auth.Claims)
	return cl
}

// UserID is an IdempotencyConfig.Identify that scopes keys to the signed-in user.
func UserID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.UserID
	}
	return ""
}
