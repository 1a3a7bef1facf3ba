package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"greenbonds/internal/adapter/middleware"
	"greenbonds/internal/domain/bond"
	"greenbonds/internal/usecase/investment"
	"greenbonds/internal/usecase/marketplace"
)

// BondHandler serves the marketplace and starts investment attempts.
type BondHandler struct {
	market  *marketplace.Usecase
	tracker *investment.Tracker
	log     *zap.Logger
}

func NewBondHandler(market *marketplace.Usecase, tracker *investment.Tracker, log *zap.Logger) *BondHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BondHandler{market: market, tracker: tracker, log: log}
}

type listBondsReq struct {
	Sort          string   `json:"sort"          validate:"omitempty,oneof=name yield maturity amount raised"`
	MinInvestment *float64 `json:"minInvestment" validate:"omitempty,gte=0"`
	MaxInvestment *float64 `json:"maxInvestment" validate:"omitempty,gte=0"`
}

type investReq struct {
	Amount Amount `json:"amount"`
}

func (h *BondHandler) ListBonds(c echo.Context) error {
	var (
		f      marketplace.Filters
		sort   string
		lo, hi float64
	)
	err := echo.QueryParamsBinder(c).
		String("search", &f.Search).
		String("bondType", &f.BondType).
		String("projectCategory", &f.ProjectCategory).
		String("riskRating", &f.RiskRating).
		String("sort", &sort).
		Float64("minInvestment", &lo).
		Float64("maxInvestment", &hi).
		BindError()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid query")
	}
	if c.QueryParam("minInvestment") != "" {
		f.MinInvestment = &lo
	}
	if c.QueryParam("maxInvestment") != "" {
		f.MaxInvestment = &hi
	}
	f.Sort = marketplace.SortKey(sort)

	if err := c.Validate(&listBondsReq{Sort: sort, MinInvestment: f.MinInvestment, MaxInvestment: f.MaxInvestment}); err != nil {
		return validationFailed(c, err)
	}

	out, err := h.market.List(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, marketplace.ErrUnknownSort) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		h.log.Error("list bonds", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to list bonds")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BondHandler) GetBond(c echo.Context) error {
	out, err := h.market.Get(c.Request().Context(), c.Param("bond_id"))
	switch {
	case errors.Is(err, bond.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "Bond not found")
	case err != nil:
		h.log.Error("get bond", zap.String("bond_id", c.Param("bond_id")), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to load bond")
	}
	return c.JSON(http.StatusOK, out)
}

// Invest validates the amount and starts an attempt. The attempt runs on
// after the response; clients poll its snapshot until it is terminal.
func (h *BondHandler) Invest(c echo.Context) error {
	var req investReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	detail, err := h.market.Get(c.Request().Context(), c.Param("bond_id"))
	switch {
	case errors.Is(err, bond.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "Bond not found")
	case err != nil:
		h.log.Error("load bond for investment", zap.String("bond_id", c.Param("bond_id")), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "failed to load bond")
	}

	a, err := h.tracker.Begin(investment.SubmitInput{
		Bond:     detail.Bond,
		Amount:   req.Amount.Raw,
		Investor: middleware.CurrentUser(c),
	})
	var ve *investment.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   ve.Message,
			Details: []FieldError{{Field: "amount", Message: string(ve.Reason)}},
		})
	case errors.Is(err, investment.ErrTrackerClosed):
		return errorJSON(c, http.StatusServiceUnavailable, "service is shutting down")
	case err != nil:
		return errorJSON(c, http.StatusInternalServerError, investment.UserMessage(err))
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/investment-attempts/"+a.ID)
	return c.JSON(http.StatusAccepted, a.Snapshot())
}

// Attempt returns the snapshot of one of the caller's own attempts.
func (h *BondHandler) Attempt(c echo.Context) error {
	a, ok := h.tracker.Get(c.Param("attempt_id"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "attempt not found")
	}
	v := a.Snapshot()
	if v.InvestorID != middleware.UserID(c) {
		return errorJSON(c, http.StatusNotFound, "attempt not found")
	}
	return c.JSON(http.StatusOK, v)
}
