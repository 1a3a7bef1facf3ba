package impact

import "context"

type Repository interface {
	SaveProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, projectID string) (*Project, error)
	ListProjectsByBondID(ctx context.Context, bondID string) ([]Project, error)
	ListProjectsByManagerID(ctx context.Context, managerID string) ([]Project, error)
	SaveMetric(ctx context.Context, m *Metric) error
	GetMetric(ctx context.Context, metricID string) (*Metric, error)
	ListMetricsByProjectID(ctx context.Context, projectID string) ([]Metric, error)
}
