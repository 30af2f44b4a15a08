package dto

import (
	"time"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for the login endpoint.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateAccountRequest payload for tech and client creation.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateAccountRequest is a full overwrite; all three fields are required.
type UpdateAccountRequest struct {
	NewName     string `json:"newName"`
	NewEmail    string `json:"newEmail"`
	NewPassword string `json:"newPassword"`
}

// UpdateAvailabilityRequest replaces the entire slot set.
type UpdateAvailabilityRequest struct {
	NewAvailabilities []string `json:"newAvailabilities"`
}

// UserResponse is the account projection; the password hash never leaves.
type UserResponse struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
	Picture *string     `json:"picture,omitempty"`
}

// TechResponse adds the availability slots, ascending.
type TechResponse struct {
	UserResponse
	Availabilities []string `json:"availabilities"`
}

// NewUserResponse projects a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		Picture: user.Picture,
	}
}
