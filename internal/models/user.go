package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of user roles. Global admins are not members
// of any company; agents report incidents from an assigned device.
type Role string

const (
	RoleGlobalAdmin  Role = "global_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleAgent        Role = "agent"
)

// ValidMemberRole reports whether r is a role a company admin may
// grant. The global_admin role is never assignable through the API.
func ValidMemberRole(r Role) bool {
	return r == RoleCompanyAdmin || r == RoleAgent
}

// User is an account. Email is unique across the whole system, not per
// company. CompanyID is nil only for global admins.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email        string     `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string     `gorm:"size:100;not null"`
	Role         Role       `gorm:"size:20;not null"`
	Active       bool       `gorm:"not null;default:true"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

// UserUpdate represents the fields a company admin can change on a
// member account. Pointer types allow partial updates.
type UserUpdate struct {
	ID     uuid.UUID
	Email  *string
	Role   *Role
	Active *bool
}
