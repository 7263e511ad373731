package models

import "time"

type CoachProfile struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Strengths      *string   `json:"strengths"`
	Specialties    *string   `json:"specialties"`
	Experience     *string   `json:"experience"`
	AvailableSlots int       `json:"available_slots"`
	TotalSlots     int       `json:"total_slots"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CoachAvailability struct {
	CoachID        int64   `json:"coach_id"`
	CoachName      string  `json:"coach_name"`
	Strengths      *string `json:"strengths"`
	Specialties    *string `json:"specialties"`
	Experience     *string `json:"experience"`
	AvailableSlots int     `json:"available_slots"`
	TotalSlots     int     `json:"total_slots"`
	BookedSlots    int     `json:"booked_slots"`
}
