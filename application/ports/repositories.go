package ports

import (
	"context"
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
)

// PageRequest asks for one page of an index query.
// Token is the opaque continuation token returned by the previous page.
type PageRequest struct {
	Limit int
	Token string
}

// ProgressPage is one page of progress records, most recently read first
type ProgressPage struct {
	Records   []*entities.ProgressRecord
	NextToken string
}

// EventPage is one page of interaction events, newest first
type EventPage struct {
	Events    []*entities.InteractionEvent
	NextToken string
}

// StoryPage is one page of catalog stories, newest first
type StoryPage struct {
	Stories   []*entities.Story
	NextToken string
}

// ProgressRepository is the progress store port.
// Implementations apply each write atomically at its key and never retry.
type ProgressRepository interface {
	// Upsert stores record unless a record with a later last_read exists,
	// in which case the stored record is returned unchanged.
	Upsert(ctx context.Context, record *entities.ProgressRecord) (*entities.ProgressRecord, error)

	// ListForChild returns the child's records ordered by last_read descending
	ListForChild(ctx context.Context, childID valueobjects.ChildID, page PageRequest) (*ProgressPage, error)

	// Get fails with NotFound when the pair has no record
	Get(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID) (*entities.ProgressRecord, error)
}

// EventLog is the append-only interaction log port. There is no update or delete.
type EventLog interface {
	// Append writes a new event; it never overwrites an existing event id
	Append(ctx context.Context, event *entities.InteractionEvent) error

	// ListForChild returns events newest first. A non-zero since is an exclusive
	// lower bound on the event timestamp.
	ListForChild(ctx context.Context, childID valueobjects.ChildID, since time.Time, page PageRequest) (*EventPage, error)

	// ListForChildStory returns one story's events for the child, newest first
	ListForChildStory(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, page PageRequest) (*EventPage, error)

	// LastEventOfTypeSet returns the winning event among types, or nil when none exists
	LastEventOfTypeSet(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, types []valueobjects.EventType) (*entities.InteractionEvent, error)
}

// StoryFilter narrows a catalog listing. At most one field is used;
// category takes precedence over age range.
type StoryFilter struct {
	Category string
	AgeRange string
}

// StoryCatalog is the read-only catalog port
type StoryCatalog interface {
	// Lookup returns nil without error when the story is absent or unpublished
	Lookup(ctx context.Context, storyID valueobjects.StoryID) (*entities.Story, error)

	// LookupMany returns the stories found; absent ids are simply missing from the map
	LookupMany(ctx context.Context, storyIDs []valueobjects.StoryID) (map[valueobjects.StoryID]*entities.Story, error)

	// List returns published stories newest first
	List(ctx context.Context, filter StoryFilter, page PageRequest) (*StoryPage, error)
}

// ChildDirectory resolves child profiles to their owning account
type ChildDirectory interface {
	// OwnerOf fails with NotFound when the child profile does not exist
	OwnerOf(ctx context.Context, childID valueobjects.ChildID) (valueobjects.UserID, error)
}

// EventPublisher forwards recorded interactions to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, events []*entities.InteractionEvent) error
}
