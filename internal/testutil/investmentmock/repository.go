package investmentmock

import (
	"context"

	domain "greenbonds/internal/domain/investment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset getters return domain.ErrNotFound; unset writers succeed.
type Repo struct {
	CreateFn             func(ctx context.Context, inv *domain.Investment) error
	GetByInvestmentIDFn  func(ctx context.Context, investmentID string) (*domain.Investment, error)
	GetByTransactionIDFn func(ctx context.Context, transactionID string) (*domain.Investment, error)
	ListByInvestorIDFn   func(ctx context.Context, investorID string) ([]domain.Investment, error)
	ListByBondIDFn       func(ctx context.Context, bondID string) ([]domain.Investment, error)
}

func (m *Repo) Create(ctx context.Context, inv *domain.Investment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, inv)
	}
	return nil
}

func (m *Repo) GetByInvestmentID(ctx context.Context, investmentID string) (*domain.Investment, error) {
	if m.GetByInvestmentIDFn != nil {
		return m.GetByInvestmentIDFn(ctx, investmentID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Investment, error) {
	if m.GetByTransactionIDFn != nil {
		return m.GetByTransactionIDFn(ctx, transactionID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByInvestorID(ctx context.Context, investorID string) ([]domain.Investment, error) {
	if m.ListByInvestorIDFn != nil {
		return m.ListByInvestorIDFn(ctx, investorID)
	}
	return nil, nil
}

func (m *Repo) ListByBondID(ctx context.Context, bondID string) ([]domain.Investment, error) {
	if m.ListByBondIDFn != nil {
		return m.ListByBondIDFn(ctx, bondID)
	}
	return nil, nil
}
