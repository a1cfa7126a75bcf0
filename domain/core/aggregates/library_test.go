package aggregates

import (
	"encoding/json"
	"testing"
	"time"

	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func event(id string, story valueobjects.StoryID, et valueobjects.EventType, at time.Time) *entities.InteractionEvent {
	return &entities.InteractionEvent{
		EventID:   valueobjects.EventID(id),
		ChildID:   "C1",
		StoryID:   story,
		EventType: et,
		Timestamp: at,
	}
}

func progress(story valueobjects.StoryID, pct int, at time.Time) *entities.ProgressRecord {
	return &entities.ProgressRecord{
		ChildID:    "C1",
		StoryID:    story,
		PageIndex:  2,
		Percentage: pct,
		LastRead:   at,
	}
}

func catalog(ids ...valueobjects.StoryID) map[valueobjects.StoryID]*entities.Story {
	stories := make(map[valueobjects.StoryID]*entities.Story, len(ids))
	for _, id := range ids {
		stories[id] = &entities.Story{StoryID: id, Title: "Story " + string(id), Published: true}
	}
	return stories
}

// resolveFavorites stands in for the per-candidate favorite lookup
func resolveFavorites(candidates []*Candidate, events []*entities.InteractionEvent) {
	for _, c := range candidates {
		var forStory []*entities.InteractionEvent
		for _, e := range events {
			if e.StoryID == c.StoryID {
				forStory = append(forStory, e)
			}
		}
		c.FavoriteEvent = LatestOfTypes(forStory, valueobjects.FavoriteEventTypes)
	}
}

func TestLatestOfTypes(t *testing.T) {
	t.Run("last toggle wins", func(t *testing.T) {
		events := []*entities.InteractionEvent{
			event("e1", "S1", valueobjects.EventTypeFavorite, t0),
			event("e2", "S1", valueobjects.EventTypeUnfavorite, t0.Add(time.Minute)),
			event("e3", "S1", valueobjects.EventTypeFavorite, t0.Add(2*time.Minute)),
		}

		winner := LatestOfTypes(events, valueobjects.FavoriteEventTypes)

		require.NotNil(t, winner)
		assert.Equal(t, valueobjects.EventID("e3"), winner.EventID)
	})

	t.Run("ignores other types", func(t *testing.T) {
		events := []*entities.InteractionEvent{
			event("e1", "S1", valueobjects.EventTypeFavorite, t0),
			event("e2", "S1", valueobjects.EventTypeView, t0.Add(time.Hour)),
		}

		winner := LatestOfTypes(events, valueobjects.FavoriteEventTypes)

		require.NotNil(t, winner)
		assert.Equal(t, valueobjects.EventID("e1"), winner.EventID)
	})

	t.Run("no match", func(t *testing.T) {
		events := []*entities.InteractionEvent{event("e1", "S1", valueobjects.EventTypeView, t0)}
		assert.Nil(t, LatestOfTypes(events, valueobjects.FavoriteEventTypes))
	})

	t.Run("equal timestamps resolve to larger id in any order", func(t *testing.T) {
		fav := event("0190a1b2-0000-7000-8000-00000000000a", "S1", valueobjects.EventTypeFavorite, t0)
		unfav := event("0190a1b2-0000-7000-8000-00000000000b", "S1", valueobjects.EventTypeUnfavorite, t0)

		for i := 0; i < 10; i++ {
			forward := LatestOfTypes([]*entities.InteractionEvent{fav, unfav}, valueobjects.FavoriteEventTypes)
			backward := LatestOfTypes([]*entities.InteractionEvent{unfav, fav}, valueobjects.FavoriteEventTypes)
			assert.Equal(t, unfav.EventID, forward.EventID)
			assert.Equal(t, unfav.EventID, backward.EventID)
		}
	})
}

func TestBuildLibrary_Scenarios(t *testing.T) {
	// S1 read to 40%, S2 favorited then unfavorited, S3 read but missing from catalog
	records := []*entities.ProgressRecord{
		progress("S1", 40, t0),
		progress("S3", 10, t0.Add(-time.Hour)),
	}
	events := []*entities.InteractionEvent{
		event("e1", "S2", valueobjects.EventTypeFavorite, t0.Add(time.Minute)),
		event("e2", "S2", valueobjects.EventTypeUnfavorite, t0.Add(2*time.Minute)),
	}

	candidates := CollectCandidates(records, events)
	resolveFavorites(candidates, events)
	entries, partial := BuildLibrary(candidates, catalog("S1", "S2"))

	assert.True(t, partial)
	require.Len(t, entries, 2)

	// canonical order: S2 has the most recent activity
	assert.Equal(t, valueobjects.StoryID("S2"), entries[0].Story.StoryID)
	assert.False(t, entries[0].IsFavorite)
	assert.Nil(t, entries[0].Progress)
	assert.Equal(t, entities.StatusNotStarted, entries[0].Status)
	assert.Equal(t, valueobjects.EventTypeUnfavorite, entries[0].LastEventType)
	assert.Equal(t, t0.Add(2*time.Minute), entries[0].LastActivity)

	assert.Equal(t, valueobjects.StoryID("S1"), entries[1].Story.StoryID)
	require.NotNil(t, entries[1].Progress)
	assert.Equal(t, 40, entries[1].Progress.Percentage)
	assert.False(t, entries[1].Progress.Completed)
	assert.Equal(t, entities.StatusInProgress, entries[1].Status)

	for _, e := range entries {
		assert.NotEqual(t, valueobjects.StoryID("S3"), e.Story.StoryID)
	}
}

func TestBuildLibrary_EmptyHistory(t *testing.T) {
	entries, partial := BuildLibrary(CollectCandidates(nil, nil), catalog("S1"))

	assert.Empty(t, entries)
	assert.False(t, partial)
}

func TestBuildLibrary_LastActivityTakesLaterSource(t *testing.T) {
	records := []*entities.ProgressRecord{progress("S1", 20, t0)}
	events := []*entities.InteractionEvent{event("e1", "S1", valueobjects.EventTypeView, t0.Add(-time.Hour))}

	entries, _ := BuildLibrary(CollectCandidates(records, events), catalog("S1"))

	require.Len(t, entries, 1)
	assert.Equal(t, t0, entries[0].LastActivity)
}

func TestBuildLibrary_Idempotent(t *testing.T) {
	records := []*entities.ProgressRecord{
		progress("A", 10, t0),
		progress("B", 20, t0),
		progress("C", 30, t0.Add(time.Second)),
	}
	events := []*entities.InteractionEvent{
		event("e1", "D", valueobjects.EventTypeFavorite, t0),
	}

	build := func() []byte {
		candidates := CollectCandidates(records, events)
		resolveFavorites(candidates, events)
		entries, _ := BuildLibrary(candidates, catalog("A", "B", "C", "D"))
		raw, err := json.Marshal(entries)
		require.NoError(t, err)
		return raw
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)

	var decoded []LibraryEntry
	require.NoError(t, json.Unmarshal(first, &decoded))
	order := make([]valueobjects.StoryID, 0, len(decoded))
	for _, e := range decoded {
		order = append(order, e.Story.StoryID)
	}
	// equal last_activity falls back to story id ascending
	assert.Equal(t, []valueobjects.StoryID{"C", "A", "B", "D"}, order)
}

func TestPaginate(t *testing.T) {
	var records []*entities.ProgressRecord
	ids := []valueobjects.StoryID{"A", "B", "C", "D", "E"}
	for i, id := range ids {
		records = append(records, progress(id, 10, t0.Add(time.Duration(-i)*time.Minute)))
	}
	entries, _ := BuildLibrary(CollectCandidates(records, nil), catalog(ids...))

	page1, next := Paginate(entries, nil, 2)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, valueobjects.StoryID("B"), next.StoryID)

	decoded, err := DecodeLibraryCursor(next.Encode())
	require.NoError(t, err)

	page2, next := Paginate(entries, decoded, 2)
	require.Len(t, page2, 2)
	assert.Equal(t, valueobjects.StoryID("C"), page2[0].Story.StoryID)
	require.NotNil(t, next)

	page3, next := Paginate(entries, next, 2)
	require.Len(t, page3, 1)
	assert.Equal(t, valueobjects.StoryID("E"), page3[0].Story.StoryID)
	assert.Nil(t, next)

	past, next := Paginate(entries, &LibraryCursor{LastActivity: t0.Add(-time.Hour), StoryID: "Z"}, 2)
	assert.Empty(t, past)
	assert.Nil(t, next)
}

func TestDecodeLibraryCursor(t *testing.T) {
	c, err := DecodeLibraryCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = DecodeLibraryCursor("not base64!")
	assert.True(t, pkgerrors.IsInvalidInput(err))

	_, err = DecodeLibraryCursor("e30") // {}
	assert.True(t, pkgerrors.IsInvalidInput(err))
}
