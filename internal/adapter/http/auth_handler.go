package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"greenbonds/internal/adapter/middleware"
	"greenbonds/internal/domain/user"
	"greenbonds/internal/usecase/auth"
)

type AuthHandler struct {
	uc  *auth.Usecase
	log *zap.Logger
}

func NewAuthHandler(uc *auth.Usecase, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{uc: uc, log: log}
}

// fail maps auth errors to the status codes the web client expects; fallback
// is the message shown for anything unexpected.
func (h *AuthHandler) fail(c echo.Context, err error, fallback string) error {
	var inputErr *auth.InputError
	switch {
	case errors.As(err, &inputErr):
		return errorJSON(c, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, user.ErrEmailTaken):
		return errorJSON(c, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrDeactivated):
		return errorJSON(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "User not found")
	}
	h.log.Error(fallback, zap.Error(err))
	return errorJSON(c, http.StatusInternalServerError, fallback)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req auth.RegisterInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err, "Registration failed")
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req auth.LoginInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err, "Login failed")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context(), middleware.CurrentClaims(c)); err != nil {
		return h.fail(c, err, "Logout failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": auth.MsgLoggedOut})
}

func (h *AuthHandler) Profile(c echo.Context) error {
	u, err := h.uc.Profile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err, "Failed to get profile")
	}
	return c.JSON(http.StatusOK, map[string]any{"user": u})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req auth.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	u, err := h.uc.UpdateProfile(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return h.fail(c, err, "Profile update failed")
	}
	return c.JSON(http.StatusOK, map[string]any{"message": auth.MsgProfileUpdated, "user": u})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req auth.ChangePasswordInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.uc.ChangePassword(c.Request().Context(), middleware.UserID(c), req); err != nil {
		return h.fail(c, err, "Password change failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": auth.MsgPasswordChanged})
}

func (h *AuthHandler) VerifyToken(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"valid": true, "user": middleware.CurrentUser(c)})
}
