package queries

import (
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
)

// GetProgressQuery reads the progress record of one pair
type GetProgressQuery struct {
	ChildID string
	StoryID string
}

// Validate validates the GetProgressQuery
func (q GetProgressQuery) Validate() error {
	if _, err := valueobjects.NewChildID(q.ChildID); err != nil {
		return err
	}
	_, err := valueobjects.NewStoryID(q.StoryID)
	return err
}

// ListProgressQuery pages through a child's progress records
type ListProgressQuery struct {
	ChildID string
	Cursor  string
	Limit   int
}

// Validate validates the ListProgressQuery
func (q ListProgressQuery) Validate() error {
	_, err := valueobjects.NewChildID(q.ChildID)
	return err
}

// ListProgressResult holds one page of progress records
type ListProgressResult struct {
	Records    []*entities.ProgressRecord `json:"records"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}
