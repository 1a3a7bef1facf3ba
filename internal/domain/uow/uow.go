package uow

import (
	"context"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/user"
)

type Repos struct {
	Bonds       bond.Repository
	Investments investment.Repository
	Users       user.Repository
	Impact      impact.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the bond first, then pass it in; fn's writes land together or not at all
	WithinBondTx(ctx context.Context, bondID string, fn func(r Repos, b *bond.Bond) error) error
}
