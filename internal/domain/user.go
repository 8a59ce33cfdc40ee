package domain

import "time"

// Role distinguishes customers from staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// IsStaff reports whether the role carries elevated ticket permissions.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for every authenticated actor: customers who
// file tickets and the employees/admins who triage them.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
