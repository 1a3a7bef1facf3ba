package uowmock

import (
	"context"
	"errors"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinBondTxFn func(ctx context.Context, bondID string, fn func(r uow.Repos, b *bond.Bond) error) error
}

func New() *UoW { return &UoW{} }

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

func (m *UoW) WithWithinBondTx(fn func(context.Context, string, func(uow.Repos, *bond.Bond) error) error) *UoW {
	m.WithinBondTxFn = fn
	return m
}

// Passthrough runs bodies directly against repos, handing WithinBondTx the
// bond returned by repos.Bonds.GetByBondIDForUpdate.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinBondTxFn: func(ctx context.Context, bondID string, fn func(uow.Repos, *bond.Bond) error) error {
			b, err := repos.Bonds.GetByBondIDForUpdate(ctx, bondID)
			if err != nil {
				return err
			}
			return fn(repos, b)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinBondTx(ctx context.Context, bondID string, fn func(r uow.Repos, b *bond.Bond) error) error {
	if m.WithinBondTxFn != nil {
		return m.WithinBondTxFn(ctx, bondID, fn)
	}
	return errUnimplemented
}
