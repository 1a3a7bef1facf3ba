package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	bondDomain "greenbonds/internal/domain/bond"
	investmentDomain "greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/uow"
)

// ----------------------------- Tests -----------------------------

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	bondRepo := NewBondRepository(db)
	invRepo := NewInvestmentRepository(db)

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Bonds.Create(ctx, makeBond("bond-commit", 1000, 0)); err != nil {
			return err
		}
		return r.Investments.Create(ctx, makeInvestment("inv-commit", "1", "bond-commit", "pay_c", 100, time.Now()))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := bondRepo.GetByBondID(ctx, "bond-commit"); err != nil {
		t.Fatalf("bond not visible after commit: %v", err)
	}
	if _, err := invRepo.GetByInvestmentID(ctx, "inv-commit"); err != nil {
		t.Fatalf("investment not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	sentinel := errors.New("boom")

	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Bonds.Create(ctx, makeBond("bond-roll", 1000, 0)); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	if _, err := NewBondRepository(db).GetByBondID(ctx, "bond-roll"); !errors.Is(err, bondDomain.ErrNotFound) {
		t.Fatalf("expected bond not found after rollback, got %v", err)
	}
}

func TestGormUoW_WithinBondTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	bondRepo := NewBondRepository(db)
	if err := bondRepo.Create(ctx, makeBond("bond-target", 50_000, 10_000)); err != nil {
		t.Fatalf("seed bond: %v", err)
	}

	err := guow.WithinBondTx(ctx, "bond-target", func(r uow.Repos, b *bondDomain.Bond) error {
		if b == nil || b.BondID != "bond-target" {
			t.Fatalf("unexpected bond passed to fn: %+v", b)
		}
		if err := r.Investments.Create(ctx, makeInvestment("inv-lock", "1", b.BondID, "pay_lock", 5_000, time.Now())); err != nil {
			return err
		}
		if err := b.Raise(5_000); err != nil {
			return err
		}
		return r.Bonds.Save(ctx, b)
	})
	if err != nil {
		t.Fatalf("WithinBondTx commit err: %v", err)
	}

	got, err := bondRepo.GetByBondID(ctx, "bond-target")
	if err != nil {
		t.Fatalf("GetByBondID post-commit: %v", err)
	}
	if got.AmountRaised != 15_000 {
		t.Fatalf("amount raised not updated, got=%v", got.AmountRaised)
	}
	if _, err := NewInvestmentRepository(db).GetByTransactionID(ctx, "pay_lock"); err != nil {
		t.Fatalf("investment not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinBondTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	bondRepo := NewBondRepository(db)
	if err := bondRepo.Create(ctx, makeBond("bond-rb", 50_000, 10_000)); err != nil {
		t.Fatalf("seed bond: %v", err)
	}

	// duplicate transaction on the second write rolls back the first
	if err := NewInvestmentRepository(db).Create(ctx, makeInvestment("inv-0", "1", "bond-rb", "pay_dup", 1, time.Now())); err != nil {
		t.Fatalf("seed investment: %v", err)
	}
	err := guow.WithinBondTx(ctx, "bond-rb", func(r uow.Repos, b *bondDomain.Bond) error {
		if err := b.Raise(5_000); err != nil {
			return err
		}
		if err := r.Bonds.Save(ctx, b); err != nil {
			return err
		}
		return r.Investments.Create(ctx, makeInvestment("inv-1", "1", "bond-rb", "pay_dup", 5_000, time.Now()))
	})
	if !errors.Is(err, investmentDomain.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}

	got, err := bondRepo.GetByBondID(ctx, "bond-rb")
	if err != nil {
		t.Fatalf("post-rollback GetByBondID: %v", err)
	}
	if got.AmountRaised != 10_000 {
		t.Fatalf("expected amount unchanged after rollback, got %v", got.AmountRaised)
	}
}

func TestGormUoW_WithinBondTx_BondNotFound(t *testing.T) {
	guow := NewGormUoW(openTestDB(t))

	err := guow.WithinBondTx(context.Background(), "bond-nope", func(r uow.Repos, b *bondDomain.Bond) error {
		t.Fatalf("callback should not be called when bond missing")
		return nil
	})
	if !errors.Is(err, bondDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
