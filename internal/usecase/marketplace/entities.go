package marketplace

import (
	"errors"

	"greenbonds/internal/domain/bond"
)

type SortKey string

const (
	SortName     SortKey = "name"
	SortYield    SortKey = "yield"
	SortMaturity SortKey = "maturity"
	SortAmount   SortKey = "amount"
	SortRaised   SortKey = "raised"
)

// Any matches every value of a select filter.
const Any = "all"

var ErrUnknownSort = errors.New("unknown sort key")

// Filters narrows the catalogue. Empty strings and "all" match anything; nil
// bounds are open.
type Filters struct {
	Search          string   `query:"search"`
	BondType        string   `query:"bondType"`
	ProjectCategory string   `query:"projectCategory"`
	RiskRating      string   `query:"riskRating"`
	MinInvestment   *float64 `query:"minInvestment"`
	MaxInvestment   *float64 `query:"maxInvestment"`
	Sort            SortKey  `query:"sort"`
}

type Summary struct {
	Count        int     `json:"count"`
	TotalAmount  float64 `json:"totalAmount"`
	AverageYield float64 `json:"averageYield"`
	Catalogue    int     `json:"catalogue"`
}

type Listing struct {
	Bonds   []bond.Bond `json:"bonds"`
	Summary Summary     `json:"summary"`
}

type Figures struct {
	TotalAmount       string `json:"totalAmount"`
	AmountRaised      string `json:"amountRaised"`
	Remaining         string `json:"remaining"`
	MinimumInvestment string `json:"minimumInvestment"`
	CouponRate        string `json:"couponRate"`
	FundingProgress   string `json:"fundingProgress"`
}

type Detail struct {
	Bond            *bond.Bond `json:"bond"`
	FundingProgress float64    `json:"fundingProgress"`
	Remaining       float64    `json:"remaining"`
	Formatted       Figures    `json:"formatted"`
}
