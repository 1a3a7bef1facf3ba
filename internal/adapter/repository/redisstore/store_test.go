package redisstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/session"
	"greenbonds/internal/domain/uow"
	"greenbonds/internal/domain/user"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test"), mr
}

func makeBond(id string, total, raised float64) *bond.Bond {
	return &bond.Bond{
		BondID:            id,
		IssuerID:          "3",
		IssuerName:        "EcoTech Solutions",
		BondName:          "Solar " + id,
		BondType:          bond.TypeCorporate,
		FaceValue:         1000,
		CouponRate:        4.5,
		Currency:          "INR",
		MinimumInvestment: 1000,
		TotalAmount:       total,
		AmountRaised:      raised,
		ProjectCategories: []string{"renewable_energy"},
		Status:            bond.StatusActive,
	}
}

func makeInvestment(id, investor, bondID, txID string, amount float64, when time.Time) *investment.Investment {
	return &investment.Investment{
		InvestmentID:     id,
		InvestorID:       investor,
		BondID:           bondID,
		InvestmentAmount: amount,
		PurchasePrice:    1000,
		PurchaseDate:     when,
		Status:           investment.StatusConfirmed,
		TransactionID:    txID,
	}
}

// ----------------------------- bonds -----------------------------

func TestBonds_CreateGetList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Bonds()

	require.NoError(t, repo.Create(ctx, makeBond("bond-2", 1000, 0)))
	require.NoError(t, repo.Create(ctx, makeBond("bond-1", 1000, 100)))

	got, err := repo.GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.AmountRaised)
	assert.Equal(t, []string{"renewable_energy"}, []string(got.ProjectCategories))

	_, err = repo.GetByBondID(ctx, "nope")
	assert.ErrorIs(t, err, bond.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bond-2", all[0].BondID, "insertion order")

	mine, err := repo.ListByIssuerID(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	none, err := repo.ListByIssuerID(ctx, "9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBonds_SaveRejectsInvariantBreach(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	b := makeBond("bond-1", 1000, 0)
	require.NoError(t, s.Bonds().Create(ctx, b))

	b.AmountRaised = 1001
	assert.ErrorIs(t, s.Bonds().Save(ctx, b), bond.ErrInvariant)

	got, err := s.Bonds().GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.AmountRaised)
}

// -------------------------- investments --------------------------

func TestInvestments_CreateAndIndexes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Investments()
	t0 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, makeInvestment("inv-1", "1", "bond-1", "pay_1", 10000, t0)))
	require.NoError(t, repo.Create(ctx, makeInvestment("inv-2", "1", "bond-3", "pay_2", 5000, t0.AddDate(0, 2, 0))))
	require.NoError(t, repo.Create(ctx, makeInvestment("inv-3", "2", "bond-1", "pay_3", 50000, t0)))

	err := repo.Create(ctx, makeInvestment("inv-4", "1", "bond-1", "pay_1", 1, t0))
	assert.ErrorIs(t, err, investment.ErrDuplicateTransaction)

	got, err := repo.GetByTransactionID(ctx, "pay_2")
	require.NoError(t, err)
	assert.Equal(t, "inv-2", got.InvestmentID)

	_, err = repo.GetByTransactionID(ctx, "pay_x")
	assert.ErrorIs(t, err, investment.ErrNotFound)
	_, err = repo.GetByInvestmentID(ctx, "inv-x")
	assert.ErrorIs(t, err, investment.ErrNotFound)

	mine, err := repo.ListByInvestorID(ctx, "1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "inv-2", mine[0].InvestmentID, "newest first")

	onBond, err := repo.ListByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Len(t, onBond, 2)

	empty, err := repo.ListByInvestorID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// ----------------------------- users -----------------------------

func TestUsers_CreateLookupSave(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	repo := s.Users()

	u := &user.User{
		UserID:       "u-1",
		Email:        " Investor@Example.com ",
		PasswordHash: "hash",
		FirstName:    "John",
		LastName:     "Investor",
		UserType:     user.TypeRetailInvestor,
		KYCStatus:    user.KYCApproved,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "investor@example.com", u.Email)

	dup := *u
	dup.UserID = "u-2"
	dup.Email = "INVESTOR@example.com"
	assert.ErrorIs(t, repo.Create(ctx, &dup), user.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "investor@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "hash", got.PasswordHash, "password hash is persisted")

	got.Email = "john@example.com"
	require.NoError(t, repo.Save(ctx, got))

	_, err = repo.GetByEmail(ctx, "investor@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound, "old email index removed")
	moved, err := repo.GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", moved.PasswordHash)

	_, err = repo.GetByUserID(ctx, "nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

// ------------------------- unit of work --------------------------

func TestWithinBondTx_CommitWritesTogether(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Bonds().Create(ctx, makeBond("bond-1", 1000, 100)))

	err := s.WithinBondTx(ctx, "bond-1", func(r uow.Repos, b *bond.Bond) error {
		if err := r.Investments.Create(ctx, makeInvestment("inv-1", "1", "bond-1", "pay_1", 400, time.Now())); err != nil {
			return err
		}
		if err := b.Raise(400); err != nil {
			return err
		}
		return r.Bonds.Save(ctx, b)
	})
	require.NoError(t, err)

	b, err := s.Bonds().GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, b.AmountRaised)
	_, err = s.Investments().GetByTransactionID(ctx, "pay_1")
	assert.NoError(t, err)
}

func TestWithinBondTx_ErrorDiscardsQueuedWrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Bonds().Create(ctx, makeBond("bond-1", 1000, 100)))
	sentinel := errors.New("stop")

	err := s.WithinBondTx(ctx, "bond-1", func(r uow.Repos, b *bond.Bond) error {
		_ = r.Investments.Create(ctx, makeInvestment("inv-1", "1", "bond-1", "pay_1", 400, time.Now()))
		_ = b.Raise(400)
		_ = r.Bonds.Save(ctx, b)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	b, err := s.Bonds().GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, b.AmountRaised)
	_, err = s.Investments().GetByTransactionID(ctx, "pay_1")
	assert.ErrorIs(t, err, investment.ErrNotFound)
}

func TestWithinBondTx_MissingBond(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.WithinBondTx(context.Background(), "nope", func(r uow.Repos, b *bond.Bond) error {
		t.Fatalf("callback should not run for a missing bond")
		return nil
	})
	assert.ErrorIs(t, err, bond.ErrNotFound)
}

func TestWithinBondTx_RetriesOnConflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Bonds().Create(ctx, makeBond("bond-1", 1000, 0)))

	calls := 0
	err := s.WithinBondTx(ctx, "bond-1", func(r uow.Repos, b *bond.Bond) error {
		calls++
		if calls == 1 {
			// a concurrent writer touches the watched hash
			other := makeBond("bond-2", 10, 0)
			if err := s.Bonds().Create(ctx, other); err != nil {
				return err
			}
		}
		if err := b.Raise(10); err != nil {
			return err
		}
		return r.Bonds.Save(ctx, b)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	b, err := s.Bonds().GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, b.AmountRaised)
}

func TestWithinBondTx_ConcurrentRaisesNeverOverfill(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Bonds().Create(ctx, makeBond("bond-1", 1000, 0)))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinBondTx(ctx, "bond-1", func(r uow.Repos, b *bond.Bond) error {
				if err := b.Raise(400); err != nil {
					return err
				}
				return r.Bonds.Save(ctx, b)
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	b, err := s.Bonds().GetByBondID(ctx, "bond-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, b.AmountRaised, b.TotalAmount)
	assert.Equal(t, float64(ok)*400, b.AmountRaised)
	assert.LessOrEqual(t, ok, 2)
}

func TestWithinTx_Commit(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Bonds.Create(ctx, makeBond("bond-1", 1000, 0)); err != nil {
			return err
		}
		return r.Users.Create(ctx, &user.User{UserID: "u-1", Email: "a@b.co"})
	})
	require.NoError(t, err)

	_, err = s.Repos().Bonds.GetByBondID(ctx, "bond-1")
	assert.NoError(t, err)
	_, err = s.Repos().Users.GetByEmail(ctx, "a@b.co")
	assert.NoError(t, err)
}

// ---------------------------- impact -----------------------------

func TestImpact_ProjectsIndexedByBondAndManager(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	r := s.Impact()

	require.NoError(t, r.SaveProject(ctx, &impact.Project{ProjectID: "project-1", BondID: "bond-1", ManagerID: "4", TotalBudget: 25000000}))
	require.NoError(t, r.SaveProject(ctx, &impact.Project{ProjectID: "project-2", BondID: "bond-2"}))
	assert.True(t, mr.Exists("test:projects:manager:4"))
	assert.False(t, mr.Exists("test:projects:manager:"))

	byBond, err := r.ListProjectsByBondID(ctx, "bond-1")
	require.NoError(t, err)
	require.Len(t, byBond, 1)
	assert.Equal(t, 25000000.0, byBond[0].TotalBudget)

	// reassigning a project hides it from its old manager
	require.NoError(t, r.SaveProject(ctx, &impact.Project{ProjectID: "project-1", BondID: "bond-1", ManagerID: "5"}))
	byManager, err := r.ListProjectsByManagerID(ctx, "4")
	require.NoError(t, err)
	assert.Empty(t, byManager)
	byManager, err = r.ListProjectsByManagerID(ctx, "5")
	require.NoError(t, err)
	assert.Len(t, byManager, 1)

	_, err = r.GetProject(ctx, "nope")
	assert.ErrorIs(t, err, impact.ErrProjectNotFound)
}

func TestImpact_MetricsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	r := s.Impact()
	sept := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.SaveMetric(ctx, &impact.Metric{MetricID: "impact-old", ProjectID: "project-1", MetricType: impact.MetricCO2Reduction, CurrentValue: 40000, MeasurementDate: sept.AddDate(0, -3, 0)}))
	require.NoError(t, r.SaveMetric(ctx, &impact.Metric{MetricID: "impact-new", ProjectID: "project-1", MetricType: impact.MetricCO2Reduction, CurrentValue: 85000, MeasurementDate: sept}))
	require.NoError(t, r.SaveMetric(ctx, &impact.Metric{MetricID: "impact-3", ProjectID: "project-2", MetricType: impact.MetricCO2Reduction, CurrentValue: 45000, MeasurementDate: sept}))

	got, err := r.ListMetricsByProjectID(ctx, "project-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "impact-new", got[0].MetricID)

	_, err = r.GetMetric(ctx, "nope")
	assert.ErrorIs(t, err, impact.ErrMetricNotFound)
}

func TestWithinTx_ImpactWritesLandTogether(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Impact.SaveProject(ctx, &impact.Project{ProjectID: "project-1", BondID: "bond-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = s.Impact().GetProject(ctx, "project-1")
	assert.ErrorIs(t, err, impact.ErrProjectNotFound)
}

// ---------------------------- sessions ---------------------------

func TestSessions_BindResolveRevoke(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	ss := s.Sessions()

	require.NoError(t, ss.Bind(ctx, "jti-1", "u-1", time.Hour))
	assert.True(t, mr.Exists("test:currentUser:jti-1"))

	got, err := ss.Resolve(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got)

	require.NoError(t, ss.Revoke(ctx, "jti-1"))
	_, err = ss.Resolve(ctx, "jti-1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, ss.Bind(ctx, "jti-2", "u-1", time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = ss.Resolve(ctx, "jti-2")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
