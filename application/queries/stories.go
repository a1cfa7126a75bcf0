package queries

import (
	"strings"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// GetStoryQuery looks up one published story
type GetStoryQuery struct {
	StoryID string
}

// Validate validates the GetStoryQuery
func (q GetStoryQuery) Validate() error {
	_, err := valueobjects.NewStoryID(q.StoryID)
	return err
}

// ListStoriesQuery lists published stories, optionally narrowed to a
// category or an age range
type ListStoriesQuery struct {
	Category string
	AgeRange string
	Cursor   string
	Limit    int
}

// Validate validates the ListStoriesQuery
func (q ListStoriesQuery) Validate() error {
	for _, v := range []string{q.Category, q.AgeRange} {
		if len(v) > valueobjects.MaxIDLength || strings.Contains(v, valueobjects.KeySeparator) {
			return pkgerrors.NewInvalidInputError("invalid category or age_range filter")
		}
	}
	return nil
}

// ListStoriesResult holds one page of stories
type ListStoriesResult struct {
	Stories    []*entities.Story `json:"stories"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
