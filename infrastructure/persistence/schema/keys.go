// Package schema derives storage keys and declares the tables and indexes
// behind the progress store, event log and story catalog.
package schema

import (
	"strings"
	"time"

	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// Key prefixes.
const (
	PrefixProgress   = "progress"
	PrefixChild      = "child"
	PrefixStory      = "story"
	PrefixFavorite   = "favorite"
	PrefixPublished  = "PUBLISHED"
	PrefixCategory   = "CATEGORY"
	PrefixAge        = "AGE"
	StoryMetadataSK  = "METADATA"
	PublishedListKey = PrefixPublished + valueobjects.KeySeparator + "true"
)

// TimestampLayout is fixed width so lexicographic order equals time order
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

func join(parts ...string) string {
	return strings.Join(parts, valueobjects.KeySeparator)
}

// ProgressKey is the primary key of the single progress record of a pair
func ProgressKey(childID valueobjects.ChildID, storyID valueobjects.StoryID) string {
	return join(PrefixProgress, childID.String(), storyID.String())
}

// ChildIndexKey partitions every progress record and event of a child
func ChildIndexKey(childID valueobjects.ChildID) string {
	return join(PrefixChild, childID.String())
}

// ChildStoryIndexKey partitions the events of one (child, story) pair
func ChildStoryIndexKey(childID valueobjects.ChildID, storyID valueobjects.StoryID) string {
	return join(PrefixChild, childID.String(), PrefixStory, storyID.String())
}

// FavoriteIndexKey partitions the favorite toggles of one pair.
// Only favorite and unfavorite events carry it.
func FavoriteIndexKey(childID valueobjects.ChildID, storyID valueobjects.StoryID) string {
	return join(PrefixFavorite, childID.String(), storyID.String())
}

// FormatTimestamp renders t in UTC with the fixed-width layout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a value written by FormatTimestamp
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, pkgerrors.Wrapf(err, "parse timestamp %q", s)
	}
	return t.UTC(), nil
}

// EventSortKey orders events by timestamp, then event id
func EventSortKey(ts time.Time, eventID valueobjects.EventID) string {
	return join(FormatTimestamp(ts), eventID.String())
}

// EventSortLowerBound is the smallest sort key strictly after every event at or before ts
func EventSortLowerBound(ts time.Time) string {
	// "~" sorts after every character of a UUID
	return join(FormatTimestamp(ts), "~")
}

// StoryKey is the primary key of a story's metadata item
func StoryKey(storyID valueobjects.StoryID) (pk, sk string) {
	return storyID.String(), StoryMetadataSK
}

// CategoryListKey partitions the catalog listing for one category
func CategoryListKey(category string) string {
	return join(PrefixCategory, category)
}

// AgeListKey partitions the catalog listing for one age range
func AgeListKey(ageRange string) string {
	return join(PrefixAge, ageRange)
}

// ListingSortKey orders listing items newest first when queried descending
func ListingSortKey(createdAt time.Time, storyID valueobjects.StoryID) string {
	return join(FormatTimestamp(createdAt), storyID.String())
}
