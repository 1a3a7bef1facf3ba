package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/user"
	"greenbonds/internal/testutil/memstore"
)

func fakeHash(p string) (string, error) { return "hashed:" + p, nil }

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default err: %v", err)
	}
	if len(d.Users) != 4 || len(d.Bonds) != 4 || len(d.Projects) != 2 || len(d.Metrics) != 3 || len(d.Investments) != 3 {
		t.Fatalf("counts users=%d bonds=%d projects=%d metrics=%d investments=%d",
			len(d.Users), len(d.Bonds), len(d.Projects), len(d.Metrics), len(d.Investments))
	}
	b := d.Bonds[0]
	if b.BondID != "bond-1" || b.Remaining() != 15000000 || b.MaturityDate.Year() != 2029 || !b.HasCategory("renewable_energy") {
		t.Fatalf("bond-1 = %+v", b)
	}
	if len(b.ImpactTargets) != 2 || b.ImpactTargets[1].MetricType != impact.MetricEnergyGenerated || b.ImpactTargets[1].TargetValue != 1200 {
		t.Fatalf("bond-1 targets = %+v", b.ImpactTargets)
	}
	p := d.Projects[0]
	if p.ManagerID != "4" || p.SpentPercent() != 34 || len(p.Milestones) != 2 || p.Milestones[0].CompletedDate == nil || p.Milestones[1].CompletedDate != nil {
		t.Fatalf("project-1 = %+v", p)
	}
	if d.Users[3].User.UserType != user.TypeProjectManager {
		t.Fatalf("user 4 = %+v", d.Users[3].User)
	}
	if d.Users[1].User.CompanyName != "Green Capital Partners" || !d.Users[1].User.UserType.IsInvestor() {
		t.Fatalf("user 2 = %+v", d.Users[1].User)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default err: %v", err)
	}
	store := memstore.New()
	ctx := context.Background()

	first, err := Load(ctx, store, d, fakeHash, nil)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if *first != (Result{Users: 4, Bonds: 4, Projects: 2, Metrics: 3, Investments: 3}) {
		t.Fatalf("first = %+v", first)
	}
	u, err := store.Repos().Users.GetByEmail(ctx, "issuer@example.com")
	if err != nil {
		t.Fatalf("GetByEmail err: %v", err)
	}
	if u.PasswordHash != "hashed:password123" {
		t.Fatalf("hash = %q", u.PasswordHash)
	}

	second, err := Load(ctx, store, d, fakeHash, nil)
	if err != nil {
		t.Fatalf("second Load err: %v", err)
	}
	if *second != (Result{}) {
		t.Fatalf("second = %+v", second)
	}
	if store.InvestmentCount() != 3 {
		t.Fatalf("investments = %d", store.InvestmentCount())
	}
	metrics, err := store.Repos().Impact.ListMetricsByProjectID(ctx, "project-1")
	if err != nil || len(metrics) != 2 {
		t.Fatalf("project-1 metrics = %+v, %v", metrics, err)
	}
}

func TestLoad_HashFailureRollsBack(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default err: %v", err)
	}
	store := memstore.New()
	boom := errors.New("boom")

	_, err = Load(context.Background(), store, d, func(string) (string, error) { return "", boom }, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if store.Bond("bond-1") != nil {
		t.Fatal("bond written despite failure")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "bonds:\n  - id: b\n    colour: green\n", "colour"},
		{"bad date", "bonds:\n  - id: b\n    maturityDate: soon\n    issueDate: \"2024-01-01\"\n", "maturityDate"},
		{"over raised", "bonds:\n  - id: b\n    maturityDate: \"2030-01-01\"\n    issueDate: \"2024-01-01\"\n    totalAmount: 10\n    amountRaised: 11\n", "bond b"},
		{"bad target metric", "bonds:\n  - id: b\n    maturityDate: \"2030-01-01\"\n    issueDate: \"2024-01-01\"\n    impactTargets:\n      - metricType: smiles\n", "unknown metric type"},
		{"bad metric type", "impactMetrics:\n  - id: m\n    metricType: smiles\n    measurementDate: \"2024-09-01\"\n", "unknown metric type"},
		{"bad milestone date", "projects:\n  - id: p\n    startDate: \"2024-01-01\"\n    expectedCompletionDate: \"2025-01-01\"\n    milestones:\n      - id: m1\n        targetDate: later\n", "milestone m1"},
		{"bad user type", "users:\n  - id: u\n    userType: admin\n    createdAt: \"2024-01-01\"\n", "unknown user type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
