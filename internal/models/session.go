package models

import "time"

const (
	SessionStatusScheduled  = "scheduled"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

const (
	RoleTutor   = "tutor"
	RoleStudent = "student"
)

type Session struct {
	ID              int64      `json:"id"`
	TutorID         int64      `json:"tutor_id"`
	StudentID       int64      `json:"student_id"`
	Subject         string     `json:"subject"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Price           float64    `json:"price"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
