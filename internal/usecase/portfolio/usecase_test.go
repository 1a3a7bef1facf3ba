package portfolio

import (
	"context"
	"testing"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/testutil/bondmock"
	"greenbonds/internal/testutil/investmentmock"
	"greenbonds/internal/testutil/memstore"
)

func TestInvestor(t *testing.T) {
	invs := []investment.Investment{
		{InvestmentID: "i1", BondID: "b1", InvestmentAmount: 5000, ExpectedReturn: 6125, Status: investment.StatusConfirmed},
		{InvestmentID: "i2", BondID: "b1", InvestmentAmount: 10000, ExpectedReturn: 12250, Status: investment.StatusConfirmed},
		{InvestmentID: "i3", BondID: "gone", InvestmentAmount: 2000, ExpectedReturn: 2400, Status: investment.StatusSettled},
		{InvestmentID: "i4", BondID: "b1", InvestmentAmount: 9999, ExpectedReturn: 9999, Status: investment.StatusCancelled},
	}
	var lookups int
	uc := NewUsecase(
		&bondmock.Repo{GetByBondIDFn: func(ctx context.Context, id string) (*bond.Bond, error) {
			lookups++
			if id == "b1" {
				return &bond.Bond{BondID: "b1", BondName: "Solar"}, nil
			}
			return nil, bond.ErrNotFound
		}},
		&investmentmock.Repo{ListByInvestorIDFn: func(ctx context.Context, id string) ([]investment.Investment, error) {
			if id != "user-1" {
				t.Fatalf("investor id = %s", id)
			}
			return invs, nil
		}},
		nil,
	)

	got, err := uc.Investor(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Investor err: %v", err)
	}
	if got.TotalInvested != 17000 || got.ExpectedValue != 20775 || got.TotalGains != 3775 || got.ActiveHoldings != 3 {
		t.Fatalf("totals = %+v", got)
	}
	if got.ReturnPercent < 22.205 || got.ReturnPercent > 22.206 {
		t.Fatalf("return %% = %v", got.ReturnPercent)
	}
	if len(got.Holdings) != 4 || got.Holdings[0].Bond == nil || got.Holdings[2].Bond != nil {
		t.Fatalf("holdings = %+v", got.Holdings)
	}
	if lookups != 2 {
		t.Fatalf("bond lookups = %d, want 2", lookups)
	}
	if got.ImpactSummary != (impact.Summary{}) {
		t.Fatalf("impact without projects = %+v", got.ImpactSummary)
	}
}

func TestSummarizeInvestor_Empty(t *testing.T) {
	got := SummarizeInvestor(nil)
	if got.TotalInvested != 0 || got.ReturnPercent != 0 || got.ActiveHoldings != 0 {
		t.Fatalf("empty = %+v", got)
	}
}

func TestIssuer(t *testing.T) {
	uc := NewUsecase(&bondmock.Repo{ListByIssuerIDFn: func(ctx context.Context, id string) ([]bond.Bond, error) {
		return []bond.Bond{
			{BondID: "b1", TotalAmount: 50000000, AmountRaised: 35000000},
			{BondID: "b2", TotalAmount: 30000000, AmountRaised: 5000000},
		}, nil
	}}, &investmentmock.Repo{}, nil)

	got, err := uc.Issuer(context.Background(), "issuer-1")
	if err != nil {
		t.Fatalf("Issuer err: %v", err)
	}
	if got.BondsIssued != 2 || got.TotalTarget != 80000000 || got.TotalRaised != 40000000 || got.OverallProgress != 50 {
		t.Fatalf("issuer = %+v", got)
	}

	empty := SummarizeIssuer(nil)
	if empty.OverallProgress != 0 || empty.Bonds == nil {
		t.Fatalf("empty = %+v", empty)
	}
}

func seedImpact(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	r := store.Repos()
	sept := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for _, b := range []bond.Bond{
		{BondID: "bond-1", TotalAmount: 50000000, AmountRaised: 35000000},
		{BondID: "bond-2", TotalAmount: 75000000, AmountRaised: 42000000},
		{BondID: "bond-4", TotalAmount: 100000000, AmountRaised: 25000000},
	} {
		b := b
		if err := r.Bonds.Create(ctx, &b); err != nil {
			t.Fatalf("create bond: %v", err)
		}
	}
	for _, p := range []impact.Project{
		{ProjectID: "project-1", BondID: "bond-1", ManagerID: "pm-1", TotalBudget: 25000000, SpentFunds: 8500000, Status: impact.ProjectInProgress},
		{ProjectID: "project-2", BondID: "bond-2", TotalBudget: 35000000, SpentFunds: 12000000, Status: impact.ProjectInProgress},
		{ProjectID: "project-3", BondID: "bond-4", ManagerID: "pm-1", TotalBudget: 15000000, SpentFunds: 15000000, Status: impact.ProjectCompleted},
		{ProjectID: "project-4", BondID: "bond-4", TotalBudget: 5000000, Status: impact.ProjectPlanning},
	} {
		p := p
		if err := r.Impact.SaveProject(ctx, &p); err != nil {
			t.Fatalf("save project: %v", err)
		}
	}
	for _, m := range []impact.Metric{
		{MetricID: "impact-1", ProjectID: "project-1", MetricType: impact.MetricCO2Reduction, CurrentValue: 85000, MeasurementDate: sept},
		{MetricID: "impact-2", ProjectID: "project-1", MetricType: impact.MetricEnergyGenerated, CurrentValue: 420, MeasurementDate: sept},
		{MetricID: "impact-3", ProjectID: "project-2", MetricType: impact.MetricCO2Reduction, CurrentValue: 45000, MeasurementDate: sept},
		{MetricID: "impact-4", ProjectID: "project-3", MetricType: impact.MetricHectaresRestored, CurrentValue: 12000, MeasurementDate: sept},
		{MetricID: "impact-5", ProjectID: "project-4", MetricType: impact.MetricCO2Reduction, CurrentValue: 30000, MeasurementDate: sept},
		{MetricID: "impact-6", ProjectID: "project-4", MetricType: impact.MetricJobsCreated, CurrentValue: 900, MeasurementDate: sept},
	} {
		m := m
		if err := r.Impact.SaveMetric(ctx, &m); err != nil {
			t.Fatalf("save metric: %v", err)
		}
	}
}

func TestInvestor_ImpactSummaryIsProRata(t *testing.T) {
	store := memstore.New()
	seedImpact(t, store)
	ctx := context.Background()
	for _, inv := range []investment.Investment{
		{InvestmentID: "i1", InvestorID: "user-1", BondID: "bond-1", InvestmentAmount: 10000, Status: investment.StatusSettled},
		{InvestmentID: "i2", InvestorID: "user-1", BondID: "bond-2", InvestmentAmount: 50000, Status: investment.StatusConfirmed},
		{InvestmentID: "i3", InvestorID: "user-1", BondID: "bond-4", InvestmentAmount: 1000000, Status: investment.StatusConfirmed},
		{InvestmentID: "i4", InvestorID: "user-1", BondID: "bond-1", InvestmentAmount: 500000, Status: investment.StatusCancelled},
		{InvestmentID: "i5", InvestorID: "user-1", BondID: "gone", InvestmentAmount: 5000, Status: investment.StatusConfirmed},
		{InvestmentID: "i6", InvestorID: "user-2", BondID: "bond-1", InvestmentAmount: 50000000, Status: investment.StatusConfirmed},
	} {
		inv := inv
		if err := store.Repos().Investments.Create(ctx, &inv); err != nil {
			t.Fatalf("create investment: %v", err)
		}
	}

	uc := NewUsecase(store.Repos().Bonds, store.Repos().Investments, store.Repos().Impact)
	got, err := uc.Investor(ctx, "user-1")
	if err != nil {
		t.Fatalf("Investor err: %v", err)
	}
	// bond-1: 85000 and 420 × 10000/50000000; bond-2: 45000 × 50000/75000000;
	// bond-4: (30000 co2, 12000 ha) × 1000000/100000000
	want := impact.Summary{CO2Reduced: 17 + 30 + 300, EnergyGenerated: 0.084, HectaresRestored: 120}
	if got.ImpactSummary != want {
		t.Fatalf("impact = %+v, want %+v", got.ImpactSummary, want)
	}

	whole, err := uc.Investor(ctx, "user-2")
	if err != nil {
		t.Fatalf("Investor err: %v", err)
	}
	if whole.ImpactSummary.CO2Reduced != 85000 || whole.ImpactSummary.EnergyGenerated != 420 {
		t.Fatalf("sole holder impact = %+v", whole.ImpactSummary)
	}
}

func TestProjects(t *testing.T) {
	store := memstore.New()
	seedImpact(t, store)
	uc := NewUsecase(store.Repos().Bonds, store.Repos().Investments, store.Repos().Impact)

	got, err := uc.Projects(context.Background(), "pm-1")
	if err != nil {
		t.Fatalf("Projects err: %v", err)
	}
	if got.ActiveProjects != 1 || got.CompletedProjects != 1 || got.TotalBudget != 40000000 || got.TotalSpent != 23500000 {
		t.Fatalf("board = %+v", got)
	}
	if got.SpentPercent != 58.75 {
		t.Fatalf("spent %% = %v", got.SpentPercent)
	}
	if len(got.Projects) != 2 || got.Projects[0].ProjectID != "project-1" || got.Projects[0].SpentPercent != 34 || len(got.Projects[0].Metrics) != 2 {
		t.Fatalf("projects = %+v", got.Projects)
	}

	none, err := uc.Projects(context.Background(), "pm-2")
	if err != nil {
		t.Fatalf("Projects err: %v", err)
	}
	if none.Projects == nil || len(none.Projects) != 0 || none.SpentPercent != 0 {
		t.Fatalf("empty board = %+v", none)
	}
}

func TestProjects_NoImpactRepository(t *testing.T) {
	got, err := NewUsecase(&bondmock.Repo{}, &investmentmock.Repo{}, nil).Projects(context.Background(), "pm-1")
	if err != nil || got.Projects == nil || got.ActiveProjects != 0 {
		t.Fatalf("board = %+v, %v", got, err)
	}
}
