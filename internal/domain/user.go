package domain

import "time"

// Role enumerates caller roles. Tickets may only be assigned to
// engineers or admins.
type Role string

const (
	RoleUser     Role = "user"
	RoleEngineer Role = "engineer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleEngineer || r == RoleAdmin
}

// User is the domain model for employees, engineers and admins.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	Specialization  string
	EmployeeID      string
	Department      string
	Team            string
	Position        string
	Location        string
	OfficeBranch    string
	Floor           string
	Building        string
	AssignedTickets []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserProfileUpdate carries optional employee profile changes; nil
// fields are left untouched.
type UserProfileUpdate struct {
	Name           *string
	Email          *string
	Specialization *string
	EmployeeID     *string
	Department     *string
	Team           *string
	Position       *string
	Location       *string
	OfficeBranch   *string
	Floor          *string
	Building       *string
}
