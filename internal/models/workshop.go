package models

import (
	"time"

	"github.com/google/uuid"
)

// Workshop statuses.
const (
	WorkshopStatusScheduled = "scheduled"
	WorkshopStatusLive      = "live"
	WorkshopStatusCompleted = "completed"
)

// Workshop represents one scheduled workshop day.
type Workshop struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	ClientName   string     `json:"client_name"`
	ContactEmail string     `json:"contact_email"`
	Location     string     `json:"location"`
	WorkshopDate time.Time  `json:"workshop_date"`
	Pincode      string     `json:"pincode"`
	Status       string     `json:"status"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session kinds within a workshop day.
const (
	SessionKindExercise = "exercise"
	SessionKindPause    = "pause"
)

// WorkshopSession is one ordered exercise (or pause) on a workshop day.
// Exercises carry a build phase and a discuss phase, each with its own duration.
type WorkshopSession struct {
	ID             uuid.UUID `json:"id"`
	WorkshopID     uuid.UUID `json:"workshop_id"`
	Position       int       `json:"position"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	BuildMinutes   int       `json:"build_minutes"`
	DiscussMinutes int       `json:"discuss_minutes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
