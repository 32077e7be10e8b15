package models

import "time"

// RoomGrant is the credential bundle a participant needs to connect to the
// real-time provider for one session.
type RoomGrant struct {
	Token     string    `json:"token"`
	Channel   string    `json:"channel"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

type RoomDetail struct {
	SessionID       int64      `json:"session_id"`
	Subject         string     `json:"subject"`
	TutorName       string     `json:"tutor_name"`
	StudentName     string     `json:"student_name"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	CallerRole      string     `json:"caller_role"`
}
