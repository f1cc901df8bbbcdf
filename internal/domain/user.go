package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole constants
const (
	RoleAdmin           = "ADMIN"
	RoleUser            = "USER"
	RoleCustomerService = "CUSTOMER_SERVICE"
)

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleCustomerService:
		return true
	}
	return false
}

// IsStaff reports whether the user can open the admin or customer-service consoles
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleCustomerService
}
