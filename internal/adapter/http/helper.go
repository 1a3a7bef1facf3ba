package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ---- helpers ----

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, ErrorResponse{Error: msg})
}

func invalidBody(c echo.Context) error {
	return errorJSON(c, http.StatusBadRequest, "invalid body")
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
