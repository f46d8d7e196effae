package models

import (
	"time"

	"gorm.io/gorm"
)

type UserKind string

const (
	UserKindContributor   UserKind = "contributor"
	UserKindAdministrator UserKind = "administrator"
)

// User is the single principal record for the platform. Kind discriminates
// contributors from administrators; the coin/exp columns are meaningful only
// for contributors and stay at zero for administrators.
type User struct {
	ID        string   `gorm:"primaryKey;type:uuid" json:"id"`
	Kind      UserKind `gorm:"type:varchar(16);not null;index" json:"kind"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string   `gorm:"index" json:"phone,omitempty"`
	Password  string   `gorm:"not null" json:"-"`
	Active    bool     `gorm:"default:true" json:"active"`

	// Contributor-only reward state. TotalCoin never goes negative; every
	// mutation goes through the ledger service.
	TotalCoin int `gorm:"default:0" json:"total_coin"`
	PointExp  int `gorm:"default:0" json:"point_exp"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (u *User) IsContributor() bool {
	return u.Kind == UserKindContributor
}

// SystemAdminEmail identifies the system administrator that owns seeded
// configuration (badges, coin rules).
const SystemAdminEmail = "system@collabdev.com"
