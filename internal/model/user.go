package model

import (
	"time"
)

// Role classifies an identity within the facility.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleParttime Role = "parttime"
	RoleUser     Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleParttime, RoleUser:
		return true
	}
	return false
}

// Permissions returns the permission set granted to the role.
func (r Role) Permissions() []string {
	switch r {
	case RoleAdmin:
		return []string{"all"}
	case RoleStaff, RoleParttime:
		return []string{"view_reports", "add_comments"}
	case RoleUser:
		return []string{"self_report"}
	}
	return nil
}

// CanComment reports whether the role authors staff comments and is subject
// to the uncommented-report gate at clock-out.
func (r Role) CanComment() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleParttime
}

// ServiceType distinguishes how a client attends the facility.
type ServiceType string

const (
	ServiceCommute ServiceType = "commute"
	ServiceHome    ServiceType = "home"
)

// User is an identity record. Deletion is a soft retire flag; history is
// never purged.
type User struct {
	ID              string      `json:"id" gorm:"primaryKey;size:64"`
	Name            string      `json:"name" gorm:"size:255;not null"`
	PasswordHash    string      `json:"-" gorm:"size:255;not null"`
	Role            Role        `json:"role" gorm:"size:16;not null;index"`
	RecipientNumber string      `json:"recipient_number,omitempty" gorm:"size:32"`
	ServiceType     ServiceType `json:"service_type,omitempty" gorm:"size:16"`
	IsSeed          bool        `json:"is_seed" gorm:"default:false"`
	IsRetired       bool        `json:"is_retired" gorm:"default:false;index"`
	RetiredAt       *time.Time  `json:"retired_at,omitempty"`
	RetiredBy       string      `json:"retired_by,omitempty" gorm:"size:64"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
