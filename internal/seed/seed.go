// Package seed loads the demo catalogue: users, bonds, the projects they
// fund with their impact metrics, and investments.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/impact"
	"greenbonds/internal/domain/investment"
	"greenbonds/internal/domain/uow"
	"greenbonds/internal/domain/user"
)

//go:embed mockdata.yaml
var mockdata []byte

const dateLayout = "2006-01-02"

type userRow struct {
	ID          string         `yaml:"id"`
	Email       string         `yaml:"email"`
	Password    string         `yaml:"password"`
	FirstName   string         `yaml:"firstName"`
	LastName    string         `yaml:"lastName"`
	UserType    user.Type      `yaml:"userType"`
	CompanyName string         `yaml:"companyName"`
	KYCStatus   user.KYCStatus `yaml:"kycStatus"`
	CreatedAt   string         `yaml:"createdAt"`
}

type bondRow struct {
	ID                 string      `yaml:"id"`
	IssuerID           string      `yaml:"issuerId"`
	IssuerName         string      `yaml:"issuerName"`
	BondName           string      `yaml:"bondName"`
	ISIN               string      `yaml:"isin"`
	BondType           bond.Type   `yaml:"bondType"`
	FaceValue          float64     `yaml:"faceValue"`
	CouponRate         float64     `yaml:"couponRate"`
	MaturityDate       string      `yaml:"maturityDate"`
	IssueDate          string      `yaml:"issueDate"`
	Currency           string      `yaml:"currency"`
	MinimumInvestment  float64     `yaml:"minimumInvestment"`
	TotalAmount        float64     `yaml:"totalAmount"`
	AmountRaised       float64     `yaml:"amountRaised"`
	GreenCertification []string    `yaml:"greenCertification"`
	UseOfProceeds      []string    `yaml:"useOfProceeds"`
	ProjectCategories  []string    `yaml:"projectCategories"`
	RiskRating         string      `yaml:"riskRating"`
	Status             bond.Status `yaml:"status"`
	Description        string      `yaml:"description"`
	ImpactTargets      []targetRow `yaml:"impactTargets"`
}

type targetRow struct {
	MetricType  impact.MetricType `yaml:"metricType"`
	TargetValue float64           `yaml:"targetValue"`
	Unit        string            `yaml:"unit"`
	Description string            `yaml:"description"`
}

type milestoneRow struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	TargetDate    string `yaml:"targetDate"`
	CompletedDate string `yaml:"completedDate"`
	Status        string `yaml:"status"`
	Progress      int    `yaml:"progress"`
}

type projectRow struct {
	ID                     string               `yaml:"id"`
	BondID                 string               `yaml:"bondId"`
	ProjectName            string               `yaml:"projectName"`
	ProjectType            string               `yaml:"projectType"`
	Description            string               `yaml:"description"`
	Country                string               `yaml:"country"`
	Region                 string               `yaml:"region"`
	ManagerID              string               `yaml:"managerId"`
	ProjectManager         string               `yaml:"projectManager"`
	StartDate              string               `yaml:"startDate"`
	ExpectedCompletionDate string               `yaml:"expectedCompletionDate"`
	TotalBudget            float64              `yaml:"totalBudget"`
	AllocatedFunds         float64              `yaml:"allocatedFunds"`
	SpentFunds             float64              `yaml:"spentFunds"`
	Status                 impact.ProjectStatus `yaml:"status"`
	SDGAlignment           []int                `yaml:"sdgAlignment"`
	Milestones             []milestoneRow       `yaml:"milestones"`
}

type metricRow struct {
	ID                 string              `yaml:"id"`
	ProjectID          string              `yaml:"projectId"`
	MetricType         impact.MetricType   `yaml:"metricType"`
	BaselineValue      float64             `yaml:"baselineValue"`
	TargetValue        float64             `yaml:"targetValue"`
	CurrentValue       float64             `yaml:"currentValue"`
	Unit               string              `yaml:"unit"`
	MeasurementDate    string              `yaml:"measurementDate"`
	VerificationStatus impact.Verification `yaml:"verificationStatus"`
	VerificationSource string              `yaml:"verificationSource"`
}

type investmentRow struct {
	ID               string            `yaml:"id"`
	InvestorID       string            `yaml:"investorId"`
	BondID           string            `yaml:"bondId"`
	InvestmentAmount float64           `yaml:"investmentAmount"`
	PurchasePrice    float64           `yaml:"purchasePrice"`
	PurchaseDate     string            `yaml:"purchaseDate"`
	Status           investment.Status `yaml:"status"`
	TransactionID    string            `yaml:"transactionId"`
	Fees             float64           `yaml:"fees"`
	ExpectedReturn   float64           `yaml:"expectedReturn"`
	MaturityValue    float64           `yaml:"maturityValue"`
}

type file struct {
	Users         []userRow       `yaml:"users"`
	Bonds         []bondRow       `yaml:"bonds"`
	Projects      []projectRow    `yaml:"projects"`
	ImpactMetrics []metricRow     `yaml:"impactMetrics"`
	Investments   []investmentRow `yaml:"investments"`
}

// User pairs a record with the clear-text password it should be created with.
type User struct {
	User     user.User
	Password string
}

type Data struct {
	Users       []User
	Bonds       []bond.Bond
	Projects    []impact.Project
	Metrics     []impact.Metric
	Investments []investment.Investment
}

func date(field, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

// Parse decodes a seed document; unknown fields are rejected.
func Parse(raw []byte) (*Data, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := &Data{}
	for _, r := range f.Users {
		created, err := date("user "+r.ID+" createdAt", r.CreatedAt)
		if err != nil {
			return nil, err
		}
		if !r.UserType.Valid() {
			return nil, fmt.Errorf("user %s: unknown user type %q", r.ID, r.UserType)
		}
		out.Users = append(out.Users, User{
			Password: r.Password,
			User: user.User{
				UserID:      r.ID,
				Email:       r.Email,
				FirstName:   r.FirstName,
				LastName:    r.LastName,
				UserType:    r.UserType,
				CompanyName: r.CompanyName,
				KYCStatus:   r.KYCStatus,
				IsActive:    true,
				Preferences: datatypes.NewJSONType(user.DefaultPreferences()),
				CreatedAt:   created,
			},
		})
	}
	for _, r := range f.Bonds {
		maturity, err := date("bond "+r.ID+" maturityDate", r.MaturityDate)
		if err != nil {
			return nil, err
		}
		issue, err := date("bond "+r.ID+" issueDate", r.IssueDate)
		if err != nil {
			return nil, err
		}
		b := bond.Bond{
			BondID:             r.ID,
			IssuerID:           r.IssuerID,
			IssuerName:         r.IssuerName,
			BondName:           r.BondName,
			ISIN:               r.ISIN,
			BondType:           r.BondType,
			FaceValue:          r.FaceValue,
			CouponRate:         r.CouponRate,
			MaturityDate:       maturity,
			IssueDate:          issue,
			Currency:           r.Currency,
			MinimumInvestment:  r.MinimumInvestment,
			TotalAmount:        r.TotalAmount,
			AmountRaised:       r.AmountRaised,
			GreenCertification: r.GreenCertification,
			UseOfProceeds:      r.UseOfProceeds,
			ProjectCategories:  r.ProjectCategories,
			RiskRating:         r.RiskRating,
			Status:             r.Status,
			Description:        r.Description,
			CreatedAt:          issue,
		}
		for _, t := range r.ImpactTargets {
			if !t.MetricType.Valid() {
				return nil, fmt.Errorf("bond %s: unknown metric type %q", r.ID, t.MetricType)
			}
			b.ImpactTargets = append(b.ImpactTargets, impact.Target(t))
		}
		if err := b.CheckInvariant(); err != nil {
			return nil, fmt.Errorf("bond %s: %w", r.ID, err)
		}
		out.Bonds = append(out.Bonds, b)
	}
	for _, r := range f.Projects {
		p, err := r.project()
		if err != nil {
			return nil, err
		}
		out.Projects = append(out.Projects, *p)
	}
	for _, r := range f.ImpactMetrics {
		if !r.MetricType.Valid() {
			return nil, fmt.Errorf("metric %s: unknown metric type %q", r.ID, r.MetricType)
		}
		measured, err := date("metric "+r.ID+" measurementDate", r.MeasurementDate)
		if err != nil {
			return nil, err
		}
		out.Metrics = append(out.Metrics, impact.Metric{
			MetricID:           r.ID,
			ProjectID:          r.ProjectID,
			MetricType:         r.MetricType,
			BaselineValue:      r.BaselineValue,
			TargetValue:        r.TargetValue,
			CurrentValue:       r.CurrentValue,
			Unit:               r.Unit,
			MeasurementDate:    measured,
			VerificationStatus: r.VerificationStatus,
			VerificationSource: r.VerificationSource,
			CreatedAt:          measured,
		})
	}
	for _, r := range f.Investments {
		purchased, err := date("investment "+r.ID+" purchaseDate", r.PurchaseDate)
		if err != nil {
			return nil, err
		}
		out.Investments = append(out.Investments, investment.Investment{
			InvestmentID:     r.ID,
			InvestorID:       r.InvestorID,
			BondID:           r.BondID,
			InvestmentAmount: r.InvestmentAmount,
			PurchasePrice:    r.PurchasePrice,
			PurchaseDate:     purchased,
			Status:           r.Status,
			TransactionID:    r.TransactionID,
			Fees:             r.Fees,
			ExpectedReturn:   r.ExpectedReturn,
			MaturityValue:    r.MaturityValue,
			CreatedAt:        purchased,
		})
	}
	return out, nil
}

func (r projectRow) project() (*impact.Project, error) {
	start, err := date("project "+r.ID+" startDate", r.StartDate)
	if err != nil {
		return nil, err
	}
	due, err := date("project "+r.ID+" expectedCompletionDate", r.ExpectedCompletionDate)
	if err != nil {
		return nil, err
	}
	p := &impact.Project{
		ProjectID:              r.ID,
		BondID:                 r.BondID,
		ProjectName:            r.ProjectName,
		ProjectType:            r.ProjectType,
		Description:            r.Description,
		Country:                r.Country,
		Region:                 r.Region,
		ManagerID:              r.ManagerID,
		ManagerName:            r.ProjectManager,
		StartDate:              start,
		ExpectedCompletionDate: due,
		TotalBudget:            r.TotalBudget,
		AllocatedFunds:         r.AllocatedFunds,
		SpentFunds:             r.SpentFunds,
		Status:                 r.Status,
		SDGAlignment:           r.SDGAlignment,
		CreatedAt:              start,
	}
	for _, m := range r.Milestones {
		target, err := date("milestone "+m.ID+" targetDate", m.TargetDate)
		if err != nil {
			return nil, err
		}
		ms := impact.Milestone{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			TargetDate:  target,
			Status:      m.Status,
			Progress:    m.Progress,
		}
		if m.CompletedDate != "" {
			done, err := date("milestone "+m.ID+" completedDate", m.CompletedDate)
			if err != nil {
				return nil, err
			}
			ms.CompletedDate = &done
		}
		p.Milestones = append(p.Milestones, ms)
	}
	return p, nil
}

// Default returns the embedded demo data.
func Default() (*Data, error) { return Parse(mockdata) }

type Result struct {
	Users       int
	Bonds       int
	Projects    int
	Metrics     int
	Investments int
}

// HashFunc turns a clear-text password into the stored hash.
type HashFunc func(password string) (string, error)

// Load writes the records that are missing, in one unit of work. Running it
// twice creates nothing the second time.
func Load(ctx context.Context, tx uow.UnitOfWork, d *Data, hash HashFunc, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{}
	err := tx.WithinTx(ctx, func(r uow.Repos) error {
		for _, su := range d.Users {
			u := su.User
			_, err := r.Users.GetByEmail(ctx, u.Email)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, user.ErrNotFound):
				return err
			}
			h, err := hash(su.Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			u.PasswordHash = h
			if err := r.Users.Create(ctx, &u); err != nil {
				return fmt.Errorf("create user %s: %w", u.UserID, err)
			}
			res.Users++
		}
		for _, b := range d.Bonds {
			b := b
			_, err := r.Bonds.GetByBondID(ctx, b.BondID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, bond.ErrNotFound):
				return err
			}
			if err := r.Bonds.Create(ctx, &b); err != nil {
				return fmt.Errorf("create bond %s: %w", b.BondID, err)
			}
			res.Bonds++
		}
		for _, p := range d.Projects {
			p := p
			_, err := r.Impact.GetProject(ctx, p.ProjectID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, impact.ErrProjectNotFound):
				return err
			}
			if err := r.Impact.SaveProject(ctx, &p); err != nil {
				return fmt.Errorf("create project %s: %w", p.ProjectID, err)
			}
			res.Projects++
		}
		for _, m := range d.Metrics {
			m := m
			_, err := r.Impact.GetMetric(ctx, m.MetricID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, impact.ErrMetricNotFound):
				return err
			}
			if err := r.Impact.SaveMetric(ctx, &m); err != nil {
				return fmt.Errorf("create metric %s: %w", m.MetricID, err)
			}
			res.Metrics++
		}
		for _, inv := range d.Investments {
			inv := inv
			_, err := r.Investments.GetByTransactionID(ctx, inv.TransactionID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, investment.ErrNotFound):
				return err
			}
			if err := r.Investments.Create(ctx, &inv); err != nil {
				return fmt.Errorf("create investment %s: %w", inv.InvestmentID, err)
			}
			res.Investments++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("seed loaded",
		zap.Int("users", res.Users),
		zap.Int("bonds", res.Bonds),
		zap.Int("projects", res.Projects),
		zap.Int("metrics", res.Metrics),
		zap.Int("investments", res.Investments))
	return res, nil
}
