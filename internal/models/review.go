package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer review tied to a workshop. Submitted through a tokenized
// public link; only approved reviews show on the site.
type Review struct {
	ID          uuid.UUID  `json:"id"`
	WorkshopID  uuid.UUID  `json:"workshop_id"`
	Token       string     `json:"-"`
	AuthorName  string     `json:"author_name"`
	Company     string     `json:"company"`
	Rating      int        `json:"rating"`
	Quote       string     `json:"quote"`
	Approved    bool       `json:"approved"`
	Featured    bool       `json:"featured"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EmailLog records an outbound mail attempt (review requests).
type EmailLog struct {
	ID         uuid.UUID `json:"id"`
	WorkshopID uuid.UUID `json:"workshop_id"`
	Recipient  string    `json:"recipient"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
