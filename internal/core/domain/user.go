package domain

import (
	"strings"
	"time"
)

// Role is the access level of an identity.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleManager        Role = "Manager"
	RoleWarehouseStaff Role = "WarehouseStaff"
	RoleStaff          Role = "Staff"
)

// DefaultRole is assigned to every self-registered identity.
const DefaultRole = RoleStaff

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWarehouseStaff, RoleStaff:
		return true
	}
	return false
}

// User is the stored identity record. PasswordHash never leaves the service
// boundary; use View to build anything a client may see.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	Role                Role
	FirstName           string
	LastName            string
	IsActive            bool
	LastLoginAt         *time.Time
	ActiveLocationID    string
	ActiveLocationSetAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UserView is the sanitized identity representation returned by the API.
type UserView struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	ActiveLocation *Location  `json:"active_location"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// View strips secrets from u. loc is the resolved active location, or nil.
func (u *User) View(loc *Location) *UserView {
	return &UserView{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		ActiveLocation: loc,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
