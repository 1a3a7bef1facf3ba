// Package portfolio computes the investor, issuer and project manager
// dashboard figures.
package portfolio

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
)

type Holding struct {
	Investment investment.Investment `json:"investment"`
	Bond       *bond.Bond            `json:"bond,omitempty"`
}

type Investor struct {
	TotalInvested  float64        `json:"totalInvested"`
	ExpectedValue  float64        `json:"expectedValue"`
	TotalGains     float64        `json:"totalGains"`
	ReturnPercent  float64        `json:"returnPercent"`
	ActiveHoldings int            `json:"activeHoldings"`
	ImpactSummary  impact.Summary `json:"impactSummary"`
	Holdings       []Holding      `json:"holdings"`
}

type Issuer struct {
	BondsIssued     int         `json:"bondsIssued"`
	TotalTarget     float64     `json:"totalTarget"`
	TotalRaised     float64     `json:"totalRaised"`
	OverallProgress float64     `json:"overallProgress"`
	Bonds           []bond.Bond `json:"bonds"`
}

type ProjectView struct {
	impact.Project
	SpentPercent float64         `json:"spentPercent"`
	Metrics      []impact.Metric `json:"impactMetrics"`
}

// Projects is the project manager's board.
type Projects struct {
	ActiveProjects    int           `json:"activeProjects"`
	CompletedProjects int           `json:"completedProjects"`
	TotalBudget       float64       `json:"totalBudget"`
	TotalSpent        float64       `json:"totalSpent"`
	SpentPercent      float64       `json:"spentPercent"`
	Projects          []ProjectView `json:"projects"`
}

type Usecase struct {
	bonds       bond.Repository
	investments investment.Repository
	impact      impact.Repository
}

// NewUsecase takes an optional impact repository; without one the investor
// impact summary is all zeros and the project board is empty.
func NewUsecase(b bond.Repository, i investment.Repository, p impact.Repository) *Usecase {
	return &Usecase{bonds: b, investments: i, impact: p}
}

func (u *Usecase) Investor(ctx context.Context, investorID string) (*Investor, error) {
	invs, err := u.investments.ListByInvestorID(ctx, investorID)
	if err != nil {
		return nil, err
	}
	bonds := map[string]*bond.Bond{}
	holdings := make([]Holding, 0, len(invs))
	for _, inv := range invs {
		b, ok := bonds[inv.BondID]
		if !ok {
			b, err = u.bonds.GetByBondID(ctx, inv.BondID)
			switch {
			case errors.Is(err, bond.ErrNotFound):
				b = nil
			case err != nil:
				return nil, err
			}
			bonds[inv.BondID] = b
		}
		holdings = append(holdings, Holding{Investment: inv, Bond: b})
	}
	out := SummarizeInvestor(invs)
	out.Holdings = holdings
	if out.ImpactSummary, err = u.impactOf(ctx, invs, bonds); err != nil {
		return nil, err
	}
	return &out, nil
}

// impactOf credits each live holding with amount/totalAmount of the current
// value of every metric measured on its bond's projects.
func (u *Usecase) impactOf(ctx context.Context, invs []investment.Investment, bonds map[string]*bond.Bond) (impact.Summary, error) {
	var acc impact.Accumulator
	if u.impact == nil {
		return acc.Summary(), nil
	}
	metrics := map[string][]impact.Metric{}
	for _, inv := range invs {
		b := bonds[inv.BondID]
		if b == nil || inv.Status == investment.StatusCancelled {
			continue
		}
		ms, ok := metrics[b.BondID]
		if !ok {
			var err error
			if ms, err = u.bondMetrics(ctx, b.BondID); err != nil {
				return impact.Summary{}, err
			}
			metrics[b.BondID] = ms
		}
		share := impact.Share(inv.InvestmentAmount, b.TotalAmount)
		for _, m := range ms {
			acc.Add(m, share)
		}
	}
	return acc.Summary(), nil
}

func (u *Usecase) bondMetrics(ctx context.Context, bondID string) ([]impact.Metric, error) {
	projects, err := u.impact.ListProjectsByBondID(ctx, bondID)
	if err != nil {
		return nil, err
	}
	var out []impact.Metric
	for _, p := range projects {
		ms, err := u.impact.ListMetricsByProjectID(ctx, p.ProjectID)
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}

// SummarizeInvestor totals amounts and expected returns; cancelled
// investments are left out.
func SummarizeInvestor(invs []investment.Investment) Investor {
	invested, expected := decimal.Zero, decimal.Zero
	var active int
	for _, inv := range invs {
		if inv.Status == investment.StatusCancelled {
			continue
		}
		active++
		invested = invested.Add(decimal.NewFromFloat(inv.InvestmentAmount))
		expected = expected.Add(decimal.NewFromFloat(inv.ExpectedReturn))
	}
	gains := expected.Sub(invested)
	out := Investor{
		TotalInvested:  invested.InexactFloat64(),
		ExpectedValue:  expected.InexactFloat64(),
		TotalGains:     gains.InexactFloat64(),
		ActiveHoldings: active,
	}
	if invested.IsPositive() {
		out.ReturnPercent = gains.Div(invested).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return out
}

func (u *Usecase) Issuer(ctx context.Context, issuerID string) (*Issuer, error) {
	bs, err := u.bonds.ListByIssuerID(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	out := SummarizeIssuer(bs)
	return &out, nil
}

func SummarizeIssuer(bs []bond.Bond) Issuer {
	target, raised := decimal.Zero, decimal.Zero
	for _, b := range bs {
		target = target.Add(decimal.NewFromFloat(b.TotalAmount))
		raised = raised.Add(decimal.NewFromFloat(b.AmountRaised))
	}
	out := Issuer{
		BondsIssued: len(bs),
		TotalTarget: target.InexactFloat64(),
		TotalRaised: raised.InexactFloat64(),
		Bonds:       bs,
	}
	if out.Bonds == nil {
		out.Bonds = []bond.Bond{}
	}
	if target.IsPositive() {
		out.OverallProgress = raised.Div(target).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return out
}

// Projects lists the projects a manager runs with their measured impact.
func (u *Usecase) Projects(ctx context.Context, managerID string) (*Projects, error) {
	out := Projects{Projects: []ProjectView{}}
	if u.impact == nil {
		return &out, nil
	}
	ps, err := u.impact.ListProjectsByManagerID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	budget, spent := decimal.Zero, decimal.Zero
	for _, p := range ps {
		ms, err := u.impact.ListMetricsByProjectID(ctx, p.ProjectID)
		if err != nil {
			return nil, err
		}
		if ms == nil {
			ms = []impact.Metric{}
		}
		switch p.Status {
		case impact.ProjectInProgress:
			out.ActiveProjects++
		case impact.ProjectCompleted:
			out.CompletedProjects++
		}
		budget = budget.Add(decimal.NewFromFloat(p.TotalBudget))
		spent = spent.Add(decimal.NewFromFloat(p.SpentFunds))
		out.Projects = append(out.Projects, ProjectView{Project: p, SpentPercent: p.SpentPercent(), Metrics: ms})
	}
	out.TotalBudget = budget.InexactFloat64()
	out.TotalSpent = spent.InexactFloat64()
	if budget.IsPositive() {
		out.SpentPercent = spent.Div(budget).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return &out, nil
}
