package models

import "time"

const (
	RoleClient = "client"
	RoleCoach  = "coach"
	RoleAdmin  = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleClient, RoleCoach, RoleAdmin:
		return true
	default:
		return false
	}
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PlatformStats struct {
	UsersByRole      map[string]int `json:"users_by_role"`
	ActiveUsers      int            `json:"active_users"`
	BookingsByStatus map[string]int `json:"bookings_by_status"`
	TotalMessages    int            `json:"total_messages"`
	TotalFeedback    int            `json:"total_feedback"`
	OpenFeedback     int            `json:"open_feedback"`
	Activity         ActivityStats  `json:"activity"`
}
