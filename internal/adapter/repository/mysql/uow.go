package mysql

import (
	"context"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Bonds:       &BondRepository{db: tx},
		Investments: &InvestmentRepository{db: tx},
		Users:       &UserRepository{db: tx},
		Impact:      &ImpactRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinBondTx(ctx context.Context, bondID string, fn func(r uow.Repos, b *bond.Bond) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the bond row up-front so concurrent commits serialise on amount_raised
		b, err := r.Bonds.GetByBondIDForUpdate(ctx, bondID)
		if err != nil {
			return err
		}
		return fn(r, b)
	})
}

var _ uow.UnitOfWork = (*GormUoW)(nil)
