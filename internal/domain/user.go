package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role gates which operations the HTTP layer lets a caller invoke.
type Role string

const (
	RoleDirector Role = "DIRECTOR"
	RoleMember   Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleDirector || r == RoleMember
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewValidationError("role", fmt.Sprintf("invalid role %q, allowed: %s, %s", s, RoleMember, RoleDirector))
	}
	return r, nil
}

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialized
	Role      Role      `gorm:"type:varchar(16);not null;default:MEMBER" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	Wallet    *Wallet   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"wallet,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDirector reports whether the user holds the director role.
func (u *User) IsDirector() bool {
	return u.Role == RoleDirector
}

// UserSummary is the public slice of a user attached to ledger and record views.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}
