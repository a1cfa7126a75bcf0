package dynamodb

import (
	"fmt"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	"twinklepod/pkg/utils"
)

// progressItem is how a progress record is stored
type progressItem struct {
	PK          string `dynamodbav:"pk"`
	ChildKey    string `dynamodbav:"child_key"`
	UserID      string `dynamodbav:"user_id"`
	ChildID     string `dynamodbav:"child_id"`
	StoryID     string `dynamodbav:"story_id"`
	PageIndex   int    `dynamodbav:"page_index"`
	Percentage  int    `dynamodbav:"percentage"`
	LastRead    string `dynamodbav:"last_read"`
	Completed   bool   `dynamodbav:"completed"`
	CompletedAt string `dynamodbav:"completed_at,omitempty"`
}

func toProgressItem(r *entities.ProgressRecord) progressItem {
	item := progressItem{
		PK:         schema.ProgressKey(r.ChildID, r.StoryID),
		ChildKey:   schema.ChildIndexKey(r.ChildID),
		UserID:     r.UserID.String(),
		ChildID:    r.ChildID.String(),
		StoryID:    r.StoryID.String(),
		PageIndex:  r.PageIndex,
		Percentage: r.Percentage,
		LastRead:   schema.FormatTimestamp(r.LastRead),
		Completed:  r.Completed,
	}
	if r.CompletedAt != nil {
		item.CompletedAt = schema.FormatTimestamp(*r.CompletedAt)
	}
	return item
}

func (i progressItem) toEntity() (*entities.ProgressRecord, error) {
	lastRead, err := schema.ParseTimestamp(i.LastRead)
	if err != nil {
		return nil, fmt.Errorf("progress %s: %w", i.PK, err)
	}
	r := &entities.ProgressRecord{
		UserID:     valueobjects.UserID(i.UserID),
		ChildID:    valueobjects.ChildID(i.ChildID),
		StoryID:    valueobjects.StoryID(i.StoryID),
		PageIndex:  i.PageIndex,
		Percentage: i.Percentage,
		LastRead:   lastRead,
		Completed:  i.Completed,
	}
	if i.CompletedAt != "" {
		completedAt, err := schema.ParseTimestamp(i.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("progress %s: %w", i.PK, err)
		}
		r.CompletedAt = &completedAt
	}
	return r, nil
}

// eventItem is how an interaction event is stored. FavoriteKey is only set
// for favorite toggles, which keeps the favorite index sparse.
type eventItem struct {
	EventID       string `dynamodbav:"event_id"`
	UserID        string `dynamodbav:"user_id"`
	ChildID       string `dynamodbav:"child_id"`
	StoryID       string `dynamodbav:"story_id"`
	EventType     string `dynamodbav:"event_type"`
	Timestamp     string `dynamodbav:"timestamp"`
	ChildKey      string `dynamodbav:"child_key"`
	ChildStoryKey string `dynamodbav:"child_story_key"`
	FavoriteKey   string `dynamodbav:"favorite_key,omitempty"`
	EventSort     string `dynamodbav:"event_sort"`
	SessionID     string `dynamodbav:"session_id,omitempty"`
	DeviceType    string `dynamodbav:"device_type,omitempty"`
	Source        string `dynamodbav:"source,omitempty"`
}

func toEventItem(e *entities.InteractionEvent) eventItem {
	item := eventItem{
		EventID:       e.EventID.String(),
		UserID:        e.UserID.String(),
		ChildID:       e.ChildID.String(),
		StoryID:       e.StoryID.String(),
		EventType:     string(e.EventType),
		Timestamp:     schema.FormatTimestamp(e.Timestamp),
		ChildKey:      schema.ChildIndexKey(e.ChildID),
		ChildStoryKey: schema.ChildStoryIndexKey(e.ChildID, e.StoryID),
		EventSort:     schema.EventSortKey(e.Timestamp, e.EventID),
		SessionID:     e.SessionID,
		DeviceType:    e.DeviceType,
		Source:        e.Source,
	}
	if e.EventType.IsFavoriteToggle() {
		item.FavoriteKey = schema.FavoriteIndexKey(e.ChildID, e.StoryID)
	}
	return item
}

func (i eventItem) toEntity() (*entities.InteractionEvent, error) {
	ts, err := schema.ParseTimestamp(i.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", i.EventID, err)
	}
	return &entities.InteractionEvent{
		EventID:   valueobjects.EventID(i.EventID),
		UserID:    valueobjects.UserID(i.UserID),
		ChildID:   valueobjects.ChildID(i.ChildID),
		StoryID:   valueobjects.StoryID(i.StoryID),
		EventType: valueobjects.EventType(i.EventType),
		Timestamp: ts,
		EventMetadata: entities.EventMetadata{
			SessionID:  i.SessionID,
			DeviceType: i.DeviceType,
			Source:     i.Source,
		},
	}, nil
}

// storyItem covers both the METADATA item and the denormalized listing items
type storyItem struct {
	PK              string   `dynamodbav:"pk"`
	SK              string   `dynamodbav:"sk"`
	StoryID         string   `dynamodbav:"story_id"`
	Title           string   `dynamodbav:"title"`
	AgeRange        string   `dynamodbav:"age_range"`
	Categories      []string `dynamodbav:"categories"`
	Tags            []string `dynamodbav:"tags,omitempty"`
	DurationMinutes int      `dynamodbav:"duration_minutes"`
	ThumbnailURL    string   `dynamodbav:"thumbnail_url"`
	Published       bool     `dynamodbav:"published"`
	CreatedAt       string   `dynamodbav:"created_at"`
}

func (i storyItem) toEntity() *entities.Story {
	story := &entities.Story{
		StoryID:         valueobjects.StoryID(i.StoryID),
		Title:           i.Title,
		AgeRange:        i.AgeRange,
		Categories:      i.Categories,
		Tags:            i.Tags,
		DurationMinutes: i.DurationMinutes,
		ThumbnailURL:    i.ThumbnailURL,
		Published:       i.Published,
	}
	if story.StoryID == "" {
		story.StoryID = valueobjects.StoryID(i.PK)
	}
	// seed data mixes fixed-width and RFC3339 timestamps
	if t, err := schema.ParseTimestamp(i.CreatedAt); err == nil {
		story.CreatedAt = t
	} else if t, err := utils.ParseRFC3339(i.CreatedAt); err == nil {
		story.CreatedAt = t.UTC()
	}
	return story
}

// childItem is a row of the child-profiles table
type childItem struct {
	ChildID string `dynamodbav:"child_id"`
	UserID  string `dynamodbav:"user_id"`
}
