package bondmock

import (
	"context"

	domain "greenbonds/internal/domain/bond"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset getters return domain.ErrNotFound; unset writers succeed.
type Repo struct {
	CreateFn               func(ctx context.Context, b *domain.Bond) error
	SaveFn                 func(ctx context.Context, b *domain.Bond) error
	GetByBondIDFn          func(ctx context.Context, bondID string) (*domain.Bond, error)
	GetByBondIDForUpdateFn func(ctx context.Context, bondID string) (*domain.Bond, error)
	ListFn                 func(ctx context.Context) ([]domain.Bond, error)
	ListByIssuerIDFn       func(ctx context.Context, issuerID string) ([]domain.Bond, error)
}

func (m *Repo) Create(ctx context.Context, b *domain.Bond) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, b *domain.Bond) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByBondID(ctx context.Context, bondID string) (*domain.Bond, error) {
	if m.GetByBondIDFn != nil {
		return m.GetByBondIDFn(ctx, bondID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByBondIDForUpdate(ctx context.Context, bondID string) (*domain.Bond, error) {
	if m.GetByBondIDForUpdateFn != nil {
		return m.GetByBondIDForUpdateFn(ctx, bondID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) List(ctx context.Context) ([]domain.Bond, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *Repo) ListByIssuerID(ctx context.Context, issuerID string) ([]domain.Bond, error) {
	if m.ListByIssuerIDFn != nil {
		return m.ListByIssuerIDFn(ctx, issuerID)
	}
	return nil, nil
}
