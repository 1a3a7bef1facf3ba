package marketplace

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"greenbonds/internal/domain/bond"
	"greenbonds/pkg/money"
)

type Usecase struct{ bonds bond.Repository }

func NewUsecase(r bond.Repository) *Usecase { return &Usecase{bonds: r} }

func (u *Usecase) List(ctx context.Context, f Filters) (*Listing, error) {
	all, err := u.bonds.List(ctx)
	if err != nil {
		return nil, err
	}
	out, err := Apply(all, f)
	if err != nil {
		return nil, err
	}
	return &Listing{Bonds: out, Summary: Summarize(out, len(all))}, nil
}

func (u *Usecase) Get(ctx context.Context, bondID string) (*Detail, error) {
	b, err := u.bonds.GetByBondID(ctx, bondID)
	if err != nil {
		return nil, err
	}
	return Describe(b), nil
}

// Apply filters and sorts a copy of bonds. Ties keep catalogue order.
func Apply(bonds []bond.Bond, f Filters) ([]bond.Bond, error) {
	less, err := comparator(f.Sort)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]bond.Bond, 0, len(bonds))
	for _, b := range bonds {
		if matches(&b, q, f) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out, nil
}

func selected(v string) bool { return v != "" && v != Any }

func matches(b *bond.Bond, q string, f Filters) bool {
	if q != "" &&
		!strings.Contains(strings.ToLower(b.BondName), q) &&
		!strings.Contains(strings.ToLower(b.IssuerName), q) &&
		!strings.Contains(strings.ToLower(b.Description), q) {
		return false
	}
	if selected(f.BondType) && string(b.BondType) != f.BondType {
		return false
	}
	if selected(f.ProjectCategory) && !b.HasCategory(f.ProjectCategory) {
		return false
	}
	if selected(f.RiskRating) && b.RiskRating != f.RiskRating {
		return false
	}
	if f.MinInvestment != nil && b.MinimumInvestment < *f.MinInvestment {
		return false
	}
	if f.MaxInvestment != nil && b.MinimumInvestment > *f.MaxInvestment {
		return false
	}
	return true
}

func raisedRatio(b *bond.Bond) float64 {
	if b.TotalAmount <= 0 {
		return 0
	}
	return b.AmountRaised / b.TotalAmount
}

func comparator(k SortKey) (func(a, b *bond.Bond) bool, error) {
	switch k {
	case "", SortName:
		// collators are not safe for concurrent use
		c := collate.New(language.English, collate.IgnoreCase)
		return func(a, b *bond.Bond) bool { return c.CompareString(a.BondName, b.BondName) < 0 }, nil
	case SortYield:
		return func(a, b *bond.Bond) bool { return a.CouponRate > b.CouponRate }, nil
	case SortMaturity:
		return func(a, b *bond.Bond) bool { return a.MaturityDate.Before(b.MaturityDate) }, nil
	case SortAmount:
		return func(a, b *bond.Bond) bool { return a.TotalAmount > b.TotalAmount }, nil
	case SortRaised:
		return func(a, b *bond.Bond) bool { return raisedRatio(a) > raisedRatio(b) }, nil
	}
	return nil, ErrUnknownSort
}

// Summarize totals a filtered listing; catalogue is the unfiltered size.
func Summarize(bonds []bond.Bond, catalogue int) Summary {
	s := Summary{Count: len(bonds), Catalogue: catalogue}
	if len(bonds) == 0 {
		return s
	}
	total, coupons := decimal.Zero, decimal.Zero
	for _, b := range bonds {
		total = total.Add(decimal.NewFromFloat(b.TotalAmount))
		coupons = coupons.Add(decimal.NewFromFloat(b.CouponRate))
	}
	s.TotalAmount = total.InexactFloat64()
	s.AverageYield = coupons.Div(decimal.NewFromInt(int64(len(bonds)))).InexactFloat64()
	return s
}

func Describe(b *bond.Bond) *Detail {
	progress, remaining := b.FundingProgress(), b.Remaining()
	return &Detail{
		Bond:            b,
		FundingProgress: progress,
		Remaining:       remaining,
		Formatted: Figures{
			TotalAmount:       money.Format(b.TotalAmount, b.Currency),
			AmountRaised:      money.Format(b.AmountRaised, b.Currency),
			Remaining:         money.Format(remaining, b.Currency),
			MinimumInvestment: money.Format(b.MinimumInvestment, b.Currency),
			CouponRate:        money.Percent(b.CouponRate, 1),
			FundingProgress:   money.Percent(progress, 1),
		},
	}
}
