package investment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound             = errors.New("investment not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

type Investment struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"-"`
	InvestmentID     string    `gorm:"size:64;uniqueIndex:ux_investments_investment_id" json:"id"`
	InvestorID       string    `gorm:"size:64;index:idx_investments_investor" json:"investorId"`
	BondID           string    `gorm:"size:64;index:idx_investments_bond" json:"bondId"`
	InvestmentAmount float64   `gorm:"type:decimal(18,2)" json:"investmentAmount"`
	PurchasePrice    float64   `gorm:"type:decimal(18,2)" json:"purchasePrice"`
	PurchaseDate     time.Time `json:"purchaseDate"`
	Status           Status    `gorm:"size:16" json:"status"`
	TransactionID    string    `gorm:"size:64;uniqueIndex:ux_investments_transaction_id" json:"transactionId"`
	Fees             float64   `gorm:"type:decimal(18,2)" json:"fees"`
	ExpectedReturn   float64   `gorm:"type:decimal(18,2)" json:"expectedReturn"`
	MaturityValue    float64   `gorm:"type:decimal(18,2)" json:"maturityValue"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Investment) TableName() string { return "investments" }

// Terms holds the figures derived from an amount at purchase time.
type Terms struct {
	Fees          float64
	MaturityValue float64
}

// Quote computes fees = amount*feeRate and
// maturity = amount*(1 + couponRate/100*horizonYears) in decimal arithmetic.
func Quote(amount, couponRate, feeRate float64, horizonYears int) Terms {
	a := decimal.NewFromFloat(amount)
	growth := decimal.NewFromFloat(couponRate).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(horizonYears)))
	return Terms{
		Fees:          a.Mul(decimal.NewFromFloat(feeRate)).InexactFloat64(),
		MaturityValue: a.Mul(decimal.NewFromInt(1).Add(growth)).InexactFloat64(),
	}
}
