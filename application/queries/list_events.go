package queries

import (
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
)

// ListEventsQuery pages through a child's events, or one story's events when
// StoryID is set. Since is ignored for the per-story history.
type ListEventsQuery struct {
	ChildID string
	StoryID string
	Since   time.Time
	Cursor  string
	Limit   int
}

// Validate validates the ListEventsQuery
func (q ListEventsQuery) Validate() error {
	if _, err := valueobjects.NewChildID(q.ChildID); err != nil {
		return err
	}
	if q.StoryID != "" {
		if _, err := valueobjects.NewStoryID(q.StoryID); err != nil {
			return err
		}
	}
	return nil
}

// ListEventsResult holds one page of events, newest first
type ListEventsResult struct {
	Events     []*entities.InteractionEvent `json:"events"`
	NextCursor string                       `json:"next_cursor,omitempty"`
}
