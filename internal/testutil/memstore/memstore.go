// Package memstore is an in-process implementation of the record
// repositories and unit of work for usecase tests. A unit of work holds the
// store lock for its whole body and rolls back to a snapshot on error.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/session"
	"greenbonds/internal/domain/uow"
	"greenbonds/internal/domain/user"
)

type state struct {
	bonds       map[string]bond.Bond
	investments map[string]investment.Investment
	users       map[string]user.User
	projects    map[string]impact.Project
	metrics     map[string]impact.Metric
	seq         uint64
}

func (s state) clone() state {
	out := state{
		bonds:       make(map[string]bond.Bond, len(s.bonds)),
		investments: make(map[string]investment.Investment, len(s.investments)),
		users:       make(map[string]user.User, len(s.users)),
		projects:    make(map[string]impact.Project, len(s.projects)),
		metrics:     make(map[string]impact.Metric, len(s.metrics)),
		seq:         s.seq,
	}
	for k, v := range s.bonds {
		out.bonds[k] = v
	}
	for k, v := range s.investments {
		out.investments[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.projects {
		out.projects[k] = v
	}
	for k, v := range s.metrics {
		out.metrics[k] = v
	}
	return out
}

type Store struct {
	mu sync.Mutex
	st state

	sessMu   sync.Mutex
	sessions map[string]string

	// Commits counts successful units of work.
	Commits int
}

func New() *Store {
	return &Store{
		st: state{
			bonds:       map[string]bond.Bond{},
			investments: map[string]investment.Investment{},
			users:       map[string]user.User{},
			projects:    map[string]impact.Project{},
			metrics:     map[string]impact.Metric{},
		},
		sessions: map[string]string{},
	}
}

// Repos returns repositories that lock per call.
func (s *Store) Repos() uow.Repos { return s.view(false) }

func (s *Store) view(inTx bool) uow.Repos {
	v := &repo{s: s, inTx: inTx}
	return uow.Repos{
		Bonds:       (*bondRepo)(v),
		Investments: (*investmentRepo)(v),
		Users:       (*userRepo)(v),
		Impact:      (*impactRepo)(v),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.st.clone()
	if err := fn(s.view(true)); err != nil {
		s.st = snap
		return err
	}
	s.Commits++
	return nil
}

func (s *Store) WithinBondTx(ctx context.Context, bondID string, fn func(r uow.Repos, b *bond.Bond) error) error {
	return s.WithinTx(ctx, func(r uow.Repos) error {
		b, err := r.Bonds.GetByBondIDForUpdate(ctx, bondID)
		if err != nil {
			return err
		}
		return fn(r, b)
	})
}

// Bond returns a copy of the stored bond, or nil.
func (s *Store) Bond(bondID string) *bond.Bond {
	b, err := s.Repos().Bonds.GetByBondID(context.Background(), bondID)
	if err != nil {
		return nil
	}
	return b
}

// InvestmentCount reports how many investments are stored.
func (s *Store) InvestmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.investments)
}

var (
	_ uow.UnitOfWork = (*Store)(nil)
	_ session.Store  = (*Store)(nil)
)

// ---- repositories ----

type repo struct {
	s    *Store
	inTx bool
}

func (r *repo) do(fn func(st *state) error) error {
	if !r.inTx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn(&r.s.st)
}

type bondRepo repo

func (r *bondRepo) do(fn func(st *state) error) error { return (*repo)(r).do(fn) }

func (r *bondRepo) Create(ctx context.Context, b *bond.Bond) error { return r.Save(ctx, b) }

func (r *bondRepo) Save(ctx context.Context, b *bond.Bond) error {
	if err := b.CheckInvariant(); err != nil {
		return err
	}
	return r.do(func(st *state) error {
		if b.ID == 0 {
			st.seq++
			b.ID = st.seq
		}
		now := time.Now().UTC()
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		b.UpdatedAt = now
		st.bonds[b.BondID] = *b
		return nil
	})
}

func (r *bondRepo) GetByBondID(ctx context.Context, bondID string) (*bond.Bond, error) {
	var out *bond.Bond
	err := r.do(func(st *state) error {
		b, ok := st.bonds[bondID]
		if !ok {
			return bond.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bondRepo) GetByBondIDForUpdate(ctx context.Context, bondID string) (*bond.Bond, error) {
	return r.GetByBondID(ctx, bondID)
}

func (r *bondRepo) List(ctx context.Context) ([]bond.Bond, error) {
	return r.filter(func(bond.Bond) bool { return true })
}

func (r *bondRepo) ListByIssuerID(ctx context.Context, issuerID string) ([]bond.Bond, error) {
	return r.filter(func(b bond.Bond) bool { return b.IssuerID == issuerID })
}

func (r *bondRepo) filter(keep func(bond.Bond) bool) ([]bond.Bond, error) {
	var out []bond.Bond
	err := r.do(func(st *state) error {
		for _, b := range st.bonds {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type investmentRepo repo

func (r *investmentRepo) do(fn func(st *state) error) error { return (*repo)(r).do(fn) }

func (r *investmentRepo) Create(ctx context.Context, inv *investment.Investment) error {
	return r.do(func(st *state) error {
		for _, existing := range st.investments {
			if inv.TransactionID != "" && existing.TransactionID == inv.TransactionID {
				return investment.ErrDuplicateTransaction
			}
		}
		st.seq++
		inv.ID = st.seq
		if inv.CreatedAt.IsZero() {
			inv.CreatedAt = time.Now().UTC()
		}
		st.investments[inv.InvestmentID] = *inv
		return nil
	})
}

func (r *investmentRepo) GetByInvestmentID(ctx context.Context, investmentID string) (*investment.Investment, error) {
	return r.find(func(inv investment.Investment) bool { return inv.InvestmentID == investmentID })
}

func (r *investmentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*investment.Investment, error) {
	return r.find(func(inv investment.Investment) bool { return inv.TransactionID == transactionID })
}

func (r *investmentRepo) find(match func(investment.Investment) bool) (*investment.Investment, error) {
	var out *investment.Investment
	err := r.do(func(st *state) error {
		for _, inv := range st.investments {
			if match(inv) {
				inv := inv
				out = &inv
				return nil
			}
		}
		return investment.ErrNotFound
	})
	return out, err
}

func (r *investmentRepo) ListByInvestorID(ctx context.Context, investorID string) ([]investment.Investment, error) {
	return r.filter(func(inv investment.Investment) bool { return inv.InvestorID == investorID })
}

func (r *investmentRepo) ListByBondID(ctx context.Context, bondID string) ([]investment.Investment, error) {
	return r.filter(func(inv investment.Investment) bool { return inv.BondID == bondID })
}

func (r *investmentRepo) filter(keep func(investment.Investment) bool) ([]investment.Investment, error) {
	var out []investment.Investment
	err := r.do(func(st *state) error {
		for _, inv := range st.investments {
			if keep(inv) {
				out = append(out, inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

type userRepo repo

func (r *userRepo) do(fn func(st *state) error) error { return (*repo)(r).do(fn) }

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.do(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return user.ErrEmailTaken
			}
		}
		st.seq++
		u.ID = st.seq
		now := time.Now().UTC()
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.UserID] = *u
		return nil
	})
}

func (r *userRepo) Save(ctx context.Context, u *user.User) error {
	return r.do(func(st *state) error {
		u.UpdatedAt = time.Now().UTC()
		st.users[u.UserID] = *u
		return nil
	})
}

func (r *userRepo) GetByUserID(ctx context.Context, userID string) (*user.User, error) {
	var out *user.User
	err := r.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return user.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *user.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return user.ErrNotFound
	})
	return out, err
}

type impactRepo repo

func (r *impactRepo) do(fn func(st *state) error) error { return (*repo)(r).do(fn) }

func (r *impactRepo) SaveProject(ctx context.Context, p *impact.Project) error {
	return r.do(func(st *state) error {
		if old, ok := st.projects[p.ProjectID]; ok {
			p.ID = old.ID
		} else {
			st.seq++
			p.ID = st.seq
		}
		st.projects[p.ProjectID] = *p
		return nil
	})
}

func (r *impactRepo) GetProject(ctx context.Context, projectID string) (*impact.Project, error) {
	var out *impact.Project
	err := r.do(func(st *state) error {
		p, ok := st.projects[projectID]
		if !ok {
			return impact.ErrProjectNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *impactRepo) ListProjectsByBondID(ctx context.Context, bondID string) ([]impact.Project, error) {
	return r.projects(func(p impact.Project) bool { return p.BondID == bondID })
}

func (r *impactRepo) ListProjectsByManagerID(ctx context.Context, managerID string) ([]impact.Project, error) {
	return r.projects(func(p impact.Project) bool { return p.ManagerID == managerID })
}

func (r *impactRepo) projects(keep func(impact.Project) bool) ([]impact.Project, error) {
	var out []impact.Project
	err := r.do(func(st *state) error {
		for _, p := range st.projects {
			if keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *impactRepo) SaveMetric(ctx context.Context, m *impact.Metric) error {
	return r.do(func(st *state) error {
		if old, ok := st.metrics[m.MetricID]; ok {
			m.ID = old.ID
		} else {
			st.seq++
			m.ID = st.seq
		}
		st.metrics[m.MetricID] = *m
		return nil
	})
}

func (r *impactRepo) GetMetric(ctx context.Context, metricID string) (*impact.Metric, error) {
	var out *impact.Metric
	err := r.do(func(st *state) error {
		m, ok := st.metrics[metricID]
		if !ok {
			return impact.ErrMetricNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *impactRepo) ListMetricsByProjectID(ctx context.Context, projectID string) ([]impact.Metric, error) {
	var out []impact.Metric
	err := r.do(func(st *state) error {
		for _, m := range st.metrics {
			if m.ProjectID == projectID {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MeasurementDate.Equal(out[j].MeasurementDate) {
			return out[i].MeasurementDate.After(out[j].MeasurementDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// ---- sessions ----

// Bind ignores ttl; tests revoke explicitly.
func (s *Store) Bind(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	s.sessions[tokenID] = userID
	return nil
}

func (s *Store) Resolve(ctx context.Context, tokenID string) (string, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	userID, ok := s.sessions[tokenID]
	if !ok {
		return "", session.ErrNotFound
	}
	return userID, nil
}

func (s *Store) Revoke(ctx context.Context, tokenID string) error {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}
