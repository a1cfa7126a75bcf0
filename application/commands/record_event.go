package commands

import (
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
)

// RecordEventCommand appends one interaction to the event log
type RecordEventCommand struct {
	UserID    string
	ChildID   string
	StoryID   string
	EventType string
	Metadata  entities.EventMetadata
}

// Validate checks ids and the event type
func (c RecordEventCommand) Validate() error {
	if _, err := valueobjects.NewUserID(c.UserID); err != nil {
		return err
	}
	if _, err := valueobjects.NewChildID(c.ChildID); err != nil {
		return err
	}
	if _, err := valueobjects.NewStoryID(c.StoryID); err != nil {
		return err
	}
	if _, err := valueobjects.ParseEventType(c.EventType); err != nil {
		return err
	}
	return nil
}
