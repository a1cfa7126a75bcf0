package commands

import (
	"twinklepod/domain/core/valueobjects"
)

// SaveProgressCommand records a page turn for one child and story
type SaveProgressCommand struct {
	UserID     string
	ChildID    string
	StoryID    string
	PageIndex  int
	Percentage int
	Completed  bool
}

// Validate checks the ids. Range checks on page_index and percentage depend
// on the clamp setting and happen in the handler.
func (c SaveProgressCommand) Validate() error {
	if _, err := valueobjects.NewUserID(c.UserID); err != nil {
		return err
	}
	if _, err := valueobjects.NewChildID(c.ChildID); err != nil {
		return err
	}
	if _, err := valueobjects.NewStoryID(c.StoryID); err != nil {
		return err
	}
	return nil
}
