// Package impact holds the projects a bond funds and the environmental
// metrics measured on them.
package impact

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type MetricType string

const (
	MetricCO2Reduction     MetricType = "co2_reduction"
	MetricEnergyGenerated  MetricType = "energy_generated"
	MetricWaterSaved       MetricType = "water_saved"
	MetricHectaresRestored MetricType = "hectares_restored"
	MetricJobsCreated      MetricType = "jobs_created"
	MetricPeopleServed     MetricType = "people_served"
)

func (t MetricType) Valid() bool {
	switch t {
	case MetricCO2Reduction, MetricEnergyGenerated, MetricWaterSaved,
		MetricHectaresRestored, MetricJobsCreated, MetricPeopleServed:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type Verification string

const (
	Unverified Verification = "unverified"
	Verified   Verification = "verified"
	Disputed   Verification = "disputed"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMetricNotFound  = errors.New("impact metric not found")
)

// Target is what a bond promises to deliver for one metric.
type Target struct {
	MetricType  MetricType `json:"metricType"`
	TargetValue float64    `json:"targetValue"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
}

type Milestone struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	TargetDate    time.Time  `json:"targetDate"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
}

type Project struct {
	ID                     uint64                         `gorm:"primaryKey;column:id" json:"-"`
	ProjectID              string                         `gorm:"size:64;uniqueIndex:ux_green_projects_project_id" json:"id"`
	BondID                 string                         `gorm:"size:64;index:idx_green_projects_bond" json:"bondId"`
	ProjectName            string                         `gorm:"size:255" json:"projectName"`
	ProjectType            string                         `gorm:"size:32" json:"projectType"`
	Description            string                         `gorm:"type:text" json:"description"`
	Country                string                         `gorm:"size:64" json:"country"`
	Region                 string                         `gorm:"size:128" json:"region"`
	ManagerID              string                         `gorm:"size:64;index:idx_green_projects_manager" json:"managerId"`
	ManagerName            string                         `gorm:"size:255" json:"projectManager"`
	StartDate              time.Time                      `json:"startDate"`
	ExpectedCompletionDate time.Time                      `json:"expectedCompletionDate"`
	TotalBudget            float64                        `gorm:"type:decimal(18,2)" json:"totalBudget"`
	AllocatedFunds         float64                        `gorm:"type:decimal(18,2)" json:"allocatedFunds"`
	SpentFunds             float64                        `gorm:"type:decimal(18,2)" json:"spentFunds"`
	Status                 ProjectStatus                  `gorm:"size:16" json:"status"`
	Milestones             datatypes.JSONSlice[Milestone] `json:"milestones"`
	SDGAlignment           datatypes.JSONSlice[int]       `json:"sdgAlignment"`
	CreatedAt              time.Time                      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time                      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Project) TableName() string { return "green_projects" }

// SpentPercent is spentFunds as a percentage of totalBudget (0 without a budget).
func (p *Project) SpentPercent() float64 {
	if p.TotalBudget <= 0 {
		return 0
	}
	return decimal.NewFromFloat(p.SpentFunds).
		Div(decimal.NewFromFloat(p.TotalBudget)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

// Metric is one measurement of a project's impact.
type Metric struct {
	ID                 uint64       `gorm:"primaryKey;column:id" json:"-"`
	MetricID           string       `gorm:"size:64;uniqueIndex:ux_impact_metrics_metric_id" json:"id"`
	ProjectID          string       `gorm:"size:64;index:idx_impact_metrics_project" json:"projectId"`
	MetricType         MetricType   `gorm:"size:32" json:"metricType"`
	BaselineValue      float64      `gorm:"type:decimal(20,4)" json:"baselineValue"`
	TargetValue        float64      `gorm:"type:decimal(20,4)" json:"targetValue"`
	CurrentValue       float64      `gorm:"type:decimal(20,4)" json:"currentValue"`
	Unit               string       `gorm:"size:32" json:"unit"`
	MeasurementDate    time.Time    `json:"measurementDate"`
	VerificationStatus Verification `gorm:"size:16" json:"verificationStatus"`
	VerificationSource string       `gorm:"size:255" json:"verificationSource,omitempty"`
	CreatedAt          time.Time    `gorm:"autoCreateTime" json:"createdAt"`
}

func (Metric) TableName() string { return "impact_metrics" }

// Summary is an investor's share of the measured impact.
type Summary struct {
	CO2Reduced       float64 `json:"co2Reduced"`
	EnergyGenerated  float64 `json:"energyGenerated"`
	WaterSaved       float64 `json:"waterSaved"`
	HectaresRestored float64 `json:"hectaresRestored"`
}

// Accumulator sums metric shares in decimal and rounds once at the end.
type Accumulator struct {
	co2, energy, water, hectares decimal.Decimal
}

// Add credits currentValue × share to the metric's bucket. Metric types the
// summary does not report are ignored.
func (a *Accumulator) Add(m Metric, share decimal.Decimal) {
	v := decimal.NewFromFloat(m.CurrentValue).Mul(share)
	switch m.MetricType {
	case MetricCO2Reduction:
		a.co2 = a.co2.Add(v)
	case MetricEnergyGenerated:
		a.energy = a.energy.Add(v)
	case MetricWaterSaved:
		a.water = a.water.Add(v)
	case MetricHectaresRestored:
		a.hectares = a.hectares.Add(v)
	}
}

// Summary rounds every bucket to four decimal places.
func (a *Accumulator) Summary() Summary {
	return Summary{
		CO2Reduced:       a.co2.Round(4).InexactFloat64(),
		EnergyGenerated:  a.energy.Round(4).InexactFloat64(),
		WaterSaved:       a.water.Round(4).InexactFloat64(),
		HectaresRestored: a.hectares.Round(4).InexactFloat64(),
	}
}

// Share is amount / total, or zero when total is not positive.
func Share(amount, total float64) decimal.Decimal {
	t := decimal.NewFromFloat(total)
	if !t.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount).Div(t)
}
