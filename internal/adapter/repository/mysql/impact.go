package mysql

import (
	"context"

	impactDomain "greenbonds/internal/domain/impact"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImpactRepository struct{ db *gorm.DB }

func NewImpactRepository(db *gorm.DB) *ImpactRepository { return &ImpactRepository{db: db} }

// SaveProject inserts the project or, when project_id exists, overwrites it.
func (r *ImpactRepository) SaveProject(ctx context.Context, p *impactDomain.Project) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "project_id"}}, UpdateAll: true}).
		Create(p).Error
}

func (r *ImpactRepository) GetProject(ctx context.Context, projectID string) (*impactDomain.Project, error) {
	var out impactDomain.Project
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&out).Error; err != nil {
		return nil, notFound(err, impactDomain.ErrProjectNotFound)
	}
	return &out, nil
}

func (r *ImpactRepository) ListProjectsByBondID(ctx context.Context, bondID string) ([]impactDomain.Project, error) {
	var out []impactDomain.Project
	err := r.db.WithContext(ctx).Where("bond_id = ?", bondID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *ImpactRepository) ListProjectsByManagerID(ctx context.Context, managerID string) ([]impactDomain.Project, error) {
	var out []impactDomain.Project
	err := r.db.WithContext(ctx).Where("manager_id = ?", managerID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *ImpactRepository) SaveMetric(ctx context.Context, m *impactDomain.Metric) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "metric_id"}}, UpdateAll: true}).
		Create(m).Error
}

func (r *ImpactRepository) GetMetric(ctx context.Context, metricID string) (*impactDomain.Metric, error) {
	var out impactDomain.Metric
	if err := r.db.WithContext(ctx).Where("metric_id = ?", metricID).First(&out).Error; err != nil {
		return nil, notFound(err, impactDomain.ErrMetricNotFound)
	}
	return &out, nil
}

// ListMetricsByProjectID returns the newest measurement first.
func (r *ImpactRepository) ListMetricsByProjectID(ctx context.Context, projectID string) ([]impactDomain.Metric, error) {
	var out []impactDomain.Metric
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("measurement_date DESC, id ASC").
		Find(&out).Error
	return out, err
}
