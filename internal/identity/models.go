package identity

import "time"

// Status values for an Identity. Only active identities may log in.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusPending  = "pending"
)

// Administrative role names. Holding any of them marks a principal as admin.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// IsAdminRole reports whether name is one of the administrative roles.
func IsAdminRole(name string) bool {
	return name == RoleAdmin || name == RoleSuperAdmin
}

// Identity is a persisted user account.
//
// UpdatedAt is the authoritative timestamp of the last credential-relevant
// mutation; sessions issued before it (beyond the grace window) are stale.
type Identity struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Status       string    `json:"status" db:"status"`
	IsFullAccess bool      `json:"is_full_access" db:"is_full_access"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Roles is only populated by lookups that ask for it.
	Roles []HeldRole `json:"roles,omitempty"`
}

// HeldRole is one row of the identity/role relation.
type HeldRole struct {
	Role Role `json:"role"`
}

// Role is immutable reference data; higher Weight means more authority.
type Role struct {
	Name        string       `json:"name" db:"name"`
	Weight      int          `json:"weight" db:"weight"`
	IsCore      bool         `json:"is_core" db:"is_core"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is an atomic capability flag such as "admin.users.edit".
type Permission struct {
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// IsActive reports whether the identity may authenticate.
func (i Identity) IsActive() bool { return i.Status == StatusActive }
