package redisstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	impactDomain "greenbonds/internal/domain/impact"

	"github.com/redis/go-redis/v9"
)

type ImpactRepository struct {
	s     *Store
	read  redis.Cmdable
	write redis.Cmdable
}

func (s *Store) Impact() *ImpactRepository {
	return &ImpactRepository{s: s, read: s.rdb, write: s.rdb}
}

// SaveProject overwrites the record and indexes it by bond and manager. A
// project moved to another bond or manager keeps its old index entries,
// which the list calls filter out.
func (r *ImpactRepository) SaveProject(ctx context.Context, p *impactDomain.Project) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	w := r.write
	if err := w.HSet(ctx, r.s.projectsKey(), p.ProjectID, data).Err(); err != nil {
		return err
	}
	if err := w.SAdd(ctx, r.s.projectBondIndexKey(p.BondID), p.ProjectID).Err(); err != nil {
		return err
	}
	if p.ManagerID == "" {
		return nil
	}
	return w.SAdd(ctx, r.s.projectManagerIndexKey(p.ManagerID), p.ProjectID).Err()
}

func (r *ImpactRepository) GetProject(ctx context.Context, projectID string) (*impactDomain.Project, error) {
	return getJSON[impactDomain.Project](ctx, r.read, r.s.projectsKey(), projectID, impactDomain.ErrProjectNotFound)
}

func (r *ImpactRepository) ListProjectsByBondID(ctx context.Context, bondID string) ([]impactDomain.Project, error) {
	return r.listProjects(ctx, r.s.projectBondIndexKey(bondID), func(p impactDomain.Project) bool { return p.BondID == bondID })
}

func (r *ImpactRepository) ListProjectsByManagerID(ctx context.Context, managerID string) ([]impactDomain.Project, error) {
	return r.listProjects(ctx, r.s.projectManagerIndexKey(managerID), func(p impactDomain.Project) bool { return p.ManagerID == managerID })
}

func (r *ImpactRepository) listProjects(ctx context.Context, setKey string, keep func(impactDomain.Project) bool) ([]impactDomain.Project, error) {
	ids, err := r.read.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	all, err := getManyJSON[impactDomain.Project](ctx, r.read, r.s.projectsKey(), ids)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out, nil
}

func (r *ImpactRepository) SaveMetric(ctx context.Context, m *impactDomain.Metric) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.write.HSet(ctx, r.s.metricsKey(), m.MetricID, data).Err(); err != nil {
		return err
	}
	return r.write.SAdd(ctx, r.s.metricProjectIndexKey(m.ProjectID), m.MetricID).Err()
}

func (r *ImpactRepository) GetMetric(ctx context.Context, metricID string) (*impactDomain.Metric, error) {
	return getJSON[impactDomain.Metric](ctx, r.read, r.s.metricsKey(), metricID, impactDomain.ErrMetricNotFound)
}

// ListMetricsByProjectID returns the newest measurement first.
func (r *ImpactRepository) ListMetricsByProjectID(ctx context.Context, projectID string) ([]impactDomain.Metric, error) {
	ids, err := r.read.SMembers(ctx, r.s.metricProjectIndexKey(projectID)).Result()
	if err != nil {
		return nil, err
	}
	out, err := getManyJSON[impactDomain.Metric](ctx, r.read, r.s.metricsKey(), ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MeasurementDate.Equal(out[j].MeasurementDate) {
			return out[i].MeasurementDate.After(out[j].MeasurementDate)
		}
		return out[i].MetricID < out[j].MetricID
	})
	return out, nil
}

var _ impactDomain.Repository = (*ImpactRepository)(nil)
