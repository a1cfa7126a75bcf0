package entities

import (
	"time"

	"twinklepod/domain/core/valueobjects"
)

// Story is a catalog entry. It is read-only from the reading core's side.
type Story struct {
	StoryID         valueobjects.StoryID `json:"story_id"`
	Title           string               `json:"title"`
	AgeRange        string               `json:"age_range"`
	Categories      []string             `json:"categories"`
	Tags            []string             `json:"tags,omitempty"`
	DurationMinutes int                  `json:"duration_minutes"`
	ThumbnailURL    string               `json:"thumbnail_url"`
	Published       bool                 `json:"published"`
	CreatedAt       time.Time            `json:"created_at"`
}
