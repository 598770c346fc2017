package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogPost is a CMS article. CoverImageKey is the S3 object key of the cover image.
type BlogPost struct {
	ID            uuid.UUID  `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Body          string     `json:"body"`
	CoverImageKey string     `json:"cover_image_key,omitempty"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
