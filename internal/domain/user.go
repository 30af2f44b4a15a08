package domain

import "time"

// Role enumerates account kinds. Stored as a closed enum so a typo in a
// request body can never slip into the database.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTech   Role = "tech"
	RoleClient Role = "client"
)

// ParseRole validates an incoming role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleTech, RoleClient:
		return Role(raw), true
	}
	return "", false
}

// User models any account: admin, technician or client.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Picture      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Availability is one hour-of-day slot a technician accepts tickets in.
type Availability struct {
	ID     string
	UserID string
	Time   string
}

// TechWithAvailability is the admin listing projection: a technician plus
// their current slots, ascending.
type TechWithAvailability struct {
	User
	Availabilities []string
}
