package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"greenbonds/internal/adapter/middleware"
	"greenbonds/internal/domain/user"
	"greenbonds/internal/usecase/portfolio"
)

type DashboardHandler struct {
	uc  *portfolio.Usecase
	log *zap.Logger
}

func NewDashboardHandler(uc *portfolio.Usecase, log *zap.Logger) *DashboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardHandler{uc: uc, log: log}
}

func (h *DashboardHandler) Portfolio(c echo.Context) error {
	out, err := h.uc.Investor(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		h.log.Error("investor dashboard", zap.String("user_id", middleware.UserID(c)), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to load portfolio")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) Issuer(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil || u.UserType != user.TypeBondIssuer {
		return errorJSON(c, http.StatusForbidden, "issuer dashboard is only available to bond issuers")
	}
	out, err := h.uc.Issuer(c.Request().Context(), u.UserID)
	if err != nil {
		h.log.Error("issuer dashboard", zap.String("user_id", u.UserID), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to load issuer dashboard")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) Projects(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil || u.UserType != user.TypeProjectManager {
		return errorJSON(c, http.StatusForbidden, "project board is only available to project managers")
	}
	out, err := h.uc.Projects(c.Request().Context(), u.UserID)
	if err != nil {
		h.log.Error("project board", zap.String("user_id", u.UserID), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to load projects")
	}
	return c.JSON(http.StatusOK, out)
}
