package entities

import (
	"time"

	"twinklepod/domain/core/valueobjects"
)

// EventMetadata carries the optional client context of an interaction
type EventMetadata struct {
	SessionID  string `json:"session_id,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	Source     string `json:"source,omitempty"`
}

// InteractionEvent is one discrete user action. Events are immutable once
// written; current favorite state is derived from them, never stored.
type InteractionEvent struct {
	EventID   valueobjects.EventID   `json:"event_id"`
	UserID    valueobjects.UserID    `json:"user_id"`
	ChildID   valueobjects.ChildID   `json:"child_id"`
	StoryID   valueobjects.StoryID   `json:"story_id"`
	EventType valueobjects.EventType `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	EventMetadata
}

// NewInteractionEvent builds a fresh event with a server-assigned id
func NewInteractionEvent(
	userID valueobjects.UserID,
	childID valueobjects.ChildID,
	storyID valueobjects.StoryID,
	eventType valueobjects.EventType,
	metadata EventMetadata,
	now time.Time,
) *InteractionEvent {
	return &InteractionEvent{
		EventID:       valueobjects.NewEventID(),
		UserID:        userID,
		ChildID:       childID,
		StoryID:       storyID,
		EventType:     eventType,
		Timestamp:     now,
		EventMetadata: metadata,
	}
}

// After reports whether e wins over other: later timestamp first, then the
// lexicographically larger event id when timestamps are equal.
func (e *InteractionEvent) After(other *InteractionEvent) bool {
	if other == nil {
		return true
	}
	if !e.Timestamp.Equal(other.Timestamp) {
		return e.Timestamp.After(other.Timestamp)
	}
	return e.EventID > other.EventID
}
