package valueobjects

import (
	pkgerrors "twinklepod/pkg/errors"
)

// EventType is the kind of interaction a child had with a story
type EventType string

const (
	EventTypeView       EventType = "view"
	EventTypeFavorite   EventType = "favorite"
	EventTypeUnfavorite EventType = "unfavorite"
	EventTypeComplete   EventType = "complete"
)

// FavoriteEventTypes are the two event types that decide favorite state
var FavoriteEventTypes = []EventType{EventTypeFavorite, EventTypeUnfavorite}

// ParseEventType validates a wire value
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.IsValid() {
		return "", pkgerrors.NewInvalidInputErrorf("event_type must be one of: view, favorite, unfavorite, complete")
	}
	return t, nil
}

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeView, EventTypeFavorite, EventTypeUnfavorite, EventTypeComplete:
		return true
	}
	return false
}

// IsFavoriteToggle reports whether t is favorite or unfavorite
func (t EventType) IsFavoriteToggle() bool {
	return t == EventTypeFavorite || t == EventTypeUnfavorite
}

// OnlyFavoriteToggles reports whether every type in the set is a favorite toggle
func OnlyFavoriteToggles(types []EventType) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if !t.IsFavoriteToggle() {
			return false
		}
	}
	return true
}

// ContainsEventType reports whether t is in types
func ContainsEventType(types []EventType, t EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
