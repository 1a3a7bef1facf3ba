package bond

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"greenbonds/internal/domain/impact"
)

type Type string

const (
	TypeCorporate     Type = "corporate"
	TypeSovereign     Type = "sovereign"
	TypeMunicipal     Type = "municipal"
	TypeSupranational Type = "supranational"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
	StatusMatured Status = "matured"
)

var (
	ErrNotFound       = errors.New("bond not found")
	ErrOverSubscribed = errors.New("investment exceeds remaining bond capacity")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvariant      = errors.New("amount raised outside [0, total amount]")
)

type Bond struct {
	ID                 uint64                             `gorm:"primaryKey;column:id" json:"-"`
	BondID             string                             `gorm:"size:64;uniqueIndex:ux_green_bonds_bond_id" json:"id"`
	IssuerID           string                             `gorm:"size:64;index:idx_green_bonds_issuer" json:"issuerId"`
	IssuerName         string                             `gorm:"size:255" json:"issuerName"`
	BondName           string                             `gorm:"size:255" json:"bondName"`
	ISIN               string                             `gorm:"size:12" json:"isin"`
	BondType           Type                               `gorm:"size:32" json:"bondType"`
	FaceValue          float64                            `gorm:"type:decimal(18,2)" json:"faceValue"`
	CouponRate         float64                            `gorm:"type:decimal(6,3)" json:"couponRate"`
	MaturityDate       time.Time                          `json:"maturityDate"`
	IssueDate          time.Time                          `json:"issueDate"`
	Currency           string                             `gorm:"size:3" json:"currency"`
	MinimumInvestment  float64                            `gorm:"type:decimal(18,2)" json:"minimumInvestment"`
	TotalAmount        float64                            `gorm:"type:decimal(18,2)" json:"totalAmount"`
	AmountRaised       float64                            `gorm:"type:decimal(18,2)" json:"amountRaised"`
	GreenCertification datatypes.JSONSlice[string]        `json:"greenCertification"`
	UseOfProceeds      datatypes.JSONSlice[string]        `json:"useOfProceeds"`
	ProjectCategories  datatypes.JSONSlice[string]        `json:"projectCategories"`
	RiskRating         string                             `gorm:"size:8" json:"riskRating"`
	Status             Status                             `gorm:"size:16" json:"status"`
	Description        string                             `gorm:"type:text" json:"description"`
	ImpactTargets      datatypes.JSONSlice[impact.Target] `json:"impactTargets"`
	CreatedAt          time.Time                          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                          `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Bond) TableName() string { return "green_bonds" }

// Remaining is the capacity still open for investment.
func (b *Bond) Remaining() float64 {
	return decimal.NewFromFloat(b.TotalAmount).Sub(decimal.NewFromFloat(b.AmountRaised)).InexactFloat64()
}

// FundingProgress is amountRaised as a percentage of totalAmount (0 for an empty bond).
func (b *Bond) FundingProgress() float64 {
	if b.TotalAmount <= 0 {
		return 0
	}
	return decimal.NewFromFloat(b.AmountRaised).
		Div(decimal.NewFromFloat(b.TotalAmount)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

// Raise adds amount to amountRaised, refusing to go past totalAmount.
func (b *Bond) Raise(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	next := decimal.NewFromFloat(b.AmountRaised).Add(decimal.NewFromFloat(amount))
	if next.GreaterThan(decimal.NewFromFloat(b.TotalAmount)) {
		return ErrOverSubscribed
	}
	b.AmountRaised = next.InexactFloat64()
	return nil
}

func (b *Bond) CheckInvariant() error {
	if b.AmountRaised < 0 || b.AmountRaised > b.TotalAmount {
		return ErrInvariant
	}
	return nil
}

func (b *Bond) HasCategory(c string) bool {
	for _, v := range b.ProjectCategories {
		if v == c {
			return true
		}
	}
	return false
}
