package dto

import (
	"time"

	"github.com/itsmkit/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token and its owner.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// UserSummary is the safe public view of a user.
type UserSummary struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	Specialization string      `json:"specialization,omitempty"`
}

// UserResponse is the full directory view, password hash excluded.
type UserResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	Specialization  string      `json:"specialization,omitempty"`
	EmployeeID      string      `json:"employee_id,omitempty"`
	Department      string      `json:"department,omitempty"`
	Team            string      `json:"team,omitempty"`
	Position        string      `json:"position,omitempty"`
	Location        string      `json:"location,omitempty"`
	OfficeBranch    string      `json:"office_branch,omitempty"`
	Floor           string      `json:"floor,omitempty"`
	Building        string      `json:"building,omitempty"`
	AssignedTickets []string    `json:"assigned_tickets,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// UpdateUserRequest carries optional employee profile changes.
type UpdateUserRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Specialization *string `json:"specialization"`
	EmployeeID     *string `json:"employee_id"`
	Department     *string `json:"department"`
	Team           *string `json:"team"`
	Position       *string `json:"position"`
	Location       *string `json:"location"`
	OfficeBranch   *string `json:"office_branch"`
	Floor          *string `json:"floor"`
	Building       *string `json:"building"`
}

// FromUserSummary maps a domain user onto the summary shape.
func FromUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		Specialization: user.Specialization,
	}
}

// FromUser maps a domain user onto the directory shape.
func FromUser(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		Specialization:  user.Specialization,
		EmployeeID:      user.EmployeeID,
		Department:      user.Department,
		Team:            user.Team,
		Position:        user.Position,
		Location:        user.Location,
		OfficeBranch:    user.OfficeBranch,
		Floor:           user.Floor,
		Building:        user.Building,
		AssignedTickets: user.AssignedTickets,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// ToProfileUpdate converts the request into the domain update shape.
func (r UpdateUserRequest) ToProfileUpdate() domain.UserProfileUpdate {
	return domain.UserProfileUpdate{
		Name:           r.Name,
		Email:          r.Email,
		Specialization: r.Specialization,
		EmployeeID:     r.EmployeeID,
		Department:     r.Department,
		Team:           r.Team,
		Position:       r.Position,
		Location:       r.Location,
		OfficeBranch:   r.OfficeBranch,
		Floor:          r.Floor,
		Building:       r.Building,
	}
}
