// Package reconcile finds bonds whose amountRaised trails the investments
// recorded against them and optionally raises it to match.
package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/uow"
)

type Drift struct {
	BondID       string  `json:"bondId"`
	AmountRaised float64 `json:"amountRaised"`
	Recorded     float64 `json:"recorded"`
	Missing      float64 `json:"missing"`
	Repaired     bool    `json:"repaired"`
	// Capped is set when the recorded sum exceeds totalAmount.
	Capped bool `json:"capped,omitempty"`
}

type Report struct {
	Scanned int     `json:"scanned"`
	Drifts  []Drift `json:"drifts"`
}

type Usecase struct {
	bonds       bond.Repository
	investments investment.Repository
	tx          uow.UnitOfWork
	log         *zap.Logger
}

func NewUsecase(b bond.Repository, i investment.Repository, tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{bonds: b, investments: i, tx: tx, log: log}
}

// Recorded sums the amounts of investments that are not cancelled.
func Recorded(invs []investment.Investment) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invs {
		if inv.Status != investment.StatusCancelled {
			sum = sum.Add(decimal.NewFromFloat(inv.InvestmentAmount))
		}
	}
	return sum
}

func (u *Usecase) Run(ctx context.Context, repair bool) (*Report, error) {
	bs, err := u.bonds.List(ctx)
	if err != nil {
		return nil, err
	}
	rep := &Report{Scanned: len(bs), Drifts: []Drift{}}
	for _, b := range bs {
		invs, err := u.investments.ListByBondID(ctx, b.BondID)
		if err != nil {
			return nil, fmt.Errorf("list investments for %s: %w", b.BondID, err)
		}
		recorded := Recorded(invs)
		raised := decimal.NewFromFloat(b.AmountRaised)
		if !recorded.GreaterThan(raised) {
			continue
		}
		d := Drift{
			BondID:       b.BondID,
			AmountRaised: b.AmountRaised,
			Recorded:     recorded.InexactFloat64(),
			Missing:      recorded.Sub(raised).InexactFloat64(),
		}
		u.log.Warn("bond amount raised trails recorded investments",
			zap.String("bond_id", b.BondID),
			zap.Float64("amount_raised", d.AmountRaised),
			zap.Float64("recorded", d.Recorded))
		if repair {
			capped, err := u.repair(ctx, b.BondID)
			if err != nil {
				return nil, fmt.Errorf("repair %s: %w", b.BondID, err)
			}
			d.Repaired, d.Capped = true, capped
		}
		rep.Drifts = append(rep.Drifts, d)
	}
	return rep, nil
}

// repair recomputes under the bond lock so a concurrent commit is not lost.
func (u *Usecase) repair(ctx context.Context, bondID string) (bool, error) {
	var capped bool
	err := u.tx.WithinBondTx(ctx, bondID, func(r uow.Repos, b *bond.Bond) error {
		invs, err := r.Investments.ListByBondID(ctx, bondID)
		if err != nil {
			return err
		}
		recorded := Recorded(invs)
		if !recorded.GreaterThan(decimal.NewFromFloat(b.AmountRaised)) {
			return nil
		}
		if total := decimal.NewFromFloat(b.TotalAmount); recorded.GreaterThan(total) {
			recorded, capped = total, true
		}
		b.AmountRaised = recorded.InexactFloat64()
		return r.Bonds.Save(ctx, b)
	})
	if err == nil {
		u.log.Info("bond amount raised repaired", zap.String("bond_id", bondID), zap.Bool("capped", capped))
	}
	return capped, err
}
