package user

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeRetailInvestor        Type = "retail_investor"
	TypeInstitutionalInvestor Type = "institutional_investor"
	TypeBondIssuer            Type = "bond_issuer"
	TypeProjectManager        Type = "project_manager"
	TypeRegulator             Type = "regulator"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRetailInvestor, TypeInstitutionalInvestor, TypeBondIssuer, TypeProjectManager, TypeRegulator:
		return true
	}
	return false
}

// IsInvestor reports whether the user type may buy bonds.
func (t Type) IsInvestor() bool {
	return t == TypeRetailInvestor || t == TypeInstitutionalInvestor
}

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("user with this email already exists")
)

type Preferences struct {
	Currency      string `json:"currency"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

func DefaultPreferences() Preferences {
	return Preferences{Currency: "INR", Language: "en", Notifications: true}
}

type User struct {
	ID           uint64                          `gorm:"primaryKey;column:id" json:"-"`
	UserID       string                          `gorm:"size:64;uniqueIndex:ux_users_user_id" json:"id"`
	Email        string                          `gorm:"size:255;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string                          `gorm:"size:255" json:"-"`
	FirstName    string                          `gorm:"size:100" json:"firstName"`
	LastName     string                          `gorm:"size:100" json:"lastName"`
	UserType     Type                            `gorm:"size:32" json:"userType"`
	CompanyName  string                          `gorm:"size:255" json:"companyName,omitempty"`
	KYCStatus    KYCStatus                       `gorm:"size:16" json:"kycStatus"`
	IsActive     bool                            `json:"isActive"`
	Preferences  datatypes.JSONType[Preferences] `json:"preferences"`
	CreatedAt    time.Time                       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                       `gorm:"autoUpdateTime" json:"updatedAt"`
	LastLogin    *time.Time                      `json:"lastLogin,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }
