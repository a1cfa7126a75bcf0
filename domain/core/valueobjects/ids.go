package valueobjects

import (
	"strings"

	pkgerrors "twinklepod/pkg/errors"

	"github.com/google/uuid"
)

// KeySeparator joins id segments inside storage keys. Ids may never contain it.
const KeySeparator = "#"

// MaxIDLength bounds every opaque id accepted by the core
const MaxIDLength = 128

// ChildID identifies a child profile owned by an account
type ChildID string

// StoryID identifies a published story in the catalog
type StoryID string

// UserID identifies the owning account, as supplied by the identity provider
type UserID string

// EventID identifies one interaction event
type EventID string

// NewChildID validates and returns a ChildID
func NewChildID(s string) (ChildID, error) {
	if err := validateID("child_id", s); err != nil {
		return "", err
	}
	return ChildID(s), nil
}

// NewStoryID validates and returns a StoryID
func NewStoryID(s string) (StoryID, error) {
	if err := validateID("story_id", s); err != nil {
		return "", err
	}
	return StoryID(s), nil
}

// NewUserID validates and returns a UserID
func NewUserID(s string) (UserID, error) {
	if err := validateID("user_id", s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

// NewEventID returns a fresh time-ordered event id (UUIDv7)
func NewEventID() EventID {
	id, err := uuid.NewV7()
	if err != nil {
		return EventID(uuid.New().String())
	}
	return EventID(id.String())
}

func (id ChildID) String() string { return string(id) }
func (id StoryID) String() string { return string(id) }
func (id UserID) String() string  { return string(id) }
func (id EventID) String() string { return string(id) }

// validateID rejects ids that would make storage keys ambiguous
func validateID(field, s string) error {
	switch {
	case s == "":
		return pkgerrors.NewInvalidInputErrorf("%s is required", field)
	case len(s) > MaxIDLength:
		return pkgerrors.NewInvalidInputErrorf("%s must be at most %d bytes", field, MaxIDLength)
	case strings.Contains(s, KeySeparator):
		return pkgerrors.NewInvalidInputErrorf("%s must not contain %q", field, KeySeparator)
	}
	return nil
}
