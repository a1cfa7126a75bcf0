package aggregates

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// LibraryEntry is one story in a child's library, derived from progress,
// events and catalog metadata. It is never stored.
type LibraryEntry struct {
	Story         *entities.Story          `json:"story"`
	Progress      *entities.ProgressRecord `json:"progress,omitempty"`
	IsFavorite    bool                     `json:"is_favorite"`
	LastActivity  time.Time                `json:"last_activity"`
	Status        entities.ReadingStatus   `json:"status"`
	LastEventType valueobjects.EventType   `json:"last_event_type,omitempty"`
}

// Candidate gathers everything known about one story before the catalog join
type Candidate struct {
	StoryID       valueobjects.StoryID
	Progress      *entities.ProgressRecord
	LatestEvent   *entities.InteractionEvent
	FavoriteEvent *entities.InteractionEvent
}

// IsFavorite reports the derived favorite state
func (c *Candidate) IsFavorite() bool {
	return c.FavoriteEvent != nil && c.FavoriteEvent.EventType == valueobjects.EventTypeFavorite
}

// LastActivity is the later of the progress last_read and the latest event timestamp
func (c *Candidate) LastActivity() time.Time {
	var last time.Time
	if c.Progress != nil {
		last = c.Progress.LastRead
	}
	if c.LatestEvent != nil && c.LatestEvent.Timestamp.After(last) {
		last = c.LatestEvent.Timestamp
	}
	return last
}

// LatestOfTypes folds events down to the winning event among types.
// Returns nil when no event matches.
func LatestOfTypes(events []*entities.InteractionEvent, types []valueobjects.EventType) *entities.InteractionEvent {
	var winner *entities.InteractionEvent
	for _, e := range events {
		if e == nil || !valueobjects.ContainsEventType(types, e.EventType) {
			continue
		}
		if e.After(winner) {
			winner = e
		}
	}
	return winner
}

// CollectCandidates unions the stories that have a progress record or at
// least one event. The result is ordered by story id.
func CollectCandidates(progress []*entities.ProgressRecord, events []*entities.InteractionEvent) []*Candidate {
	byStory := make(map[valueobjects.StoryID]*Candidate)
	get := func(id valueobjects.StoryID) *Candidate {
		c, ok := byStory[id]
		if !ok {
			c = &Candidate{StoryID: id}
			byStory[id] = c
		}
		return c
	}

	for _, p := range progress {
		if p == nil {
			continue
		}
		c := get(p.StoryID)
		if c.Progress.SupersededBy(p) {
			c.Progress = p
		}
	}
	for _, e := range events {
		if e == nil {
			continue
		}
		c := get(e.StoryID)
		if e.After(c.LatestEvent) {
			c.LatestEvent = e
		}
	}

	candidates := make([]*Candidate, 0, len(byStory))
	for _, c := range byStory {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].StoryID < candidates[j].StoryID
	})
	return candidates
}

// BuildLibrary joins candidates against catalog metadata. Candidates whose
// story is missing from stories are dropped and partial is set.
// Entries come back in canonical order.
func BuildLibrary(candidates []*Candidate, stories map[valueobjects.StoryID]*entities.Story) (entries []LibraryEntry, partial bool) {
	entries = make([]LibraryEntry, 0, len(candidates))
	for _, c := range candidates {
		story, ok := stories[c.StoryID]
		if !ok || story == nil {
			partial = true
			continue
		}

		entry := LibraryEntry{
			Story:        story,
			Progress:     c.Progress,
			IsFavorite:   c.IsFavorite(),
			LastActivity: c.LastActivity(),
			Status:       c.Progress.Status(),
		}
		if c.LatestEvent != nil {
			entry.LastEventType = c.LatestEvent.EventType
		}
		entries = append(entries, entry)
	}

	SortCanonical(entries)
	return entries, partial
}

// SortCanonical orders entries by last_activity descending, then story_id ascending
func SortCanonical(entries []LibraryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryBefore(entries[i].LastActivity, entries[i].Story.StoryID, entries[j].LastActivity, entries[j].Story.StoryID)
	})
}

func entryBefore(aTime time.Time, aID valueobjects.StoryID, bTime time.Time, bID valueobjects.StoryID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID < bID
}

// LibraryCursor marks the last entry returned on a library page
type LibraryCursor struct {
	LastActivity time.Time            `json:"a"`
	StoryID      valueobjects.StoryID `json:"s"`
}

// Encode renders the cursor as an opaque url-safe token
func (c LibraryCursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeLibraryCursor parses a token produced by Encode. An empty token yields nil.
func DecodeLibraryCursor(token string) (*LibraryCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, pkgerrors.NewInvalidInputError("invalid library cursor")
	}
	var c LibraryCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.StoryID == "" {
		return nil, pkgerrors.NewInvalidInputError("invalid library cursor")
	}
	return &c, nil
}

// Paginate returns the entries strictly after the cursor, at most limit of
// them, and the cursor for the following page when more remain.
// entries must already be in canonical order.
func Paginate(entries []LibraryEntry, after *LibraryCursor, limit int) ([]LibraryEntry, *LibraryCursor) {
	start := 0
	if after != nil {
		start = sort.Search(len(entries), func(i int) bool {
			return entryBefore(after.LastActivity, after.StoryID, entries[i].LastActivity, entries[i].Story.StoryID)
		})
	}
	if start >= len(entries) {
		return []LibraryEntry{}, nil
	}

	end := start + limit
	if limit <= 0 || end >= len(entries) {
		return entries[start:], nil
	}

	last := entries[end-1]
	return entries[start:end], &LibraryCursor{
		LastActivity: last.LastActivity,
		StoryID:      last.Story.StoryID,
	}
}
