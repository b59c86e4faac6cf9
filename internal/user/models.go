package user

import "time"

// Roles a Role Record may carry.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// RoleRecord is the authorization entry for one identity. It is keyed by
// the identity's subject id.
type RoleRecord struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the record grants admin access. Any value other
// than "admin" is treated as employee.
func (r *RoleRecord) IsAdmin() bool {
	return r != nil && r.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}
