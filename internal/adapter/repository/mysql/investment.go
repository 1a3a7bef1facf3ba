package mysql

import (
	"context"

	investmentDomain "greenbonds/internal/domain/investment"

	"gorm.io/gorm"
)

type InvestmentRepository struct{ db *gorm.DB }

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *investmentDomain.Investment) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	if isDuplicate(err) {
		return investmentDomain.ErrDuplicateTransaction
	}
	return err
}

func (r *InvestmentRepository) GetByInvestmentID(ctx context.Context, investmentID string) (*investmentDomain.Investment, error) {
	var out investmentDomain.Investment
	if err := r.db.WithContext(ctx).Where("investment_id = ?", investmentID).First(&out).Error; err != nil {
		return nil, notFound(err, investmentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *InvestmentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*investmentDomain.Investment, error) {
	var out investmentDomain.Investment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&out).Error; err != nil {
		return nil, notFound(err, investmentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *InvestmentRepository) ListByInvestorID(ctx context.Context, investorID string) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("purchase_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) ListByBondID(ctx context.Context, bondID string) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).
		Where("bond_id = ?", bondID).
		Order("purchase_date DESC, id DESC").
		Find(&out).Error
	return out, err
}
