package mysql

import (
	"testing"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/infrastructure/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openTestDB opens an in-memory sqlite DB pinned to a single connection
// (each new :memory: connection would be a fresh, empty database).
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenGorm("sqlite", ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func makeBond(bondID string, total, raised float64) *bond.Bond {
	return &bond.Bond{
		BondID:             bondID,
		IssuerID:           "3",
		IssuerName:         "EcoTech Solutions",
		BondName:           "Solar Energy Development Bond 2024",
		ISIN:               "US12345678901",
		BondType:           bond.TypeCorporate,
		FaceValue:          1000,
		CouponRate:         4.5,
		MaturityDate:       time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC),
		IssueDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Currency:           "INR",
		MinimumInvestment:  1000,
		TotalAmount:        total,
		AmountRaised:       raised,
		GreenCertification: []string{"Climate Bonds Standard"},
		ProjectCategories:  []string{"renewable_energy"},
		RiskRating:         "BBB+",
		Status:             bond.StatusActive,
	}
}

func makeInvestment(invID, investorID, bondID, txID string, amount float64, when time.Time) *investment.Investment {
	return &investment.Investment{
		InvestmentID:     invID,
		InvestorID:       investorID,
		BondID:           bondID,
		InvestmentAmount: amount,
		PurchasePrice:    1000,
		PurchaseDate:     when.UTC(),
		Status:           investment.StatusConfirmed,
		TransactionID:    txID,
	}
}
