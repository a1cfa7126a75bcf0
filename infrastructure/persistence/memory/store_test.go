package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"twinklepod/application/ports"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC)

func record(story valueobjects.StoryID, pct int, at time.Time) *entities.ProgressRecord {
	r, _ := entities.NewProgressRecord(entities.ProgressUpdate{
		UserID: "u1", ChildID: "c1", StoryID: story, PageIndex: 1, Percentage: pct,
	}, true, at)
	return r
}

func TestProgressStore_UpsertKeepsOneRecordPerPair(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := store.Upsert(ctx, record("s1", i*10, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	page, err := store.ListForChild(ctx, "c1", ports.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, base.Add(4*time.Second), page.Records[0].LastRead)
	assert.Equal(t, 40, page.Records[0].Percentage)
}

func TestProgressStore_StaleWriteReturnsStoredRecord(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(zap.NewNop())

	_, err := store.Upsert(ctx, record("s1", 60, base.Add(time.Minute)))
	require.NoError(t, err)

	got, err := store.Upsert(ctx, record("s1", 20, base))

	require.NoError(t, err)
	assert.Equal(t, 60, got.Percentage)
	stored, err := store.Get(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Percentage)
}

func TestProgressStore_GetMissing(t *testing.T) {
	store := NewProgressStore(zap.NewNop())

	_, err := store.Get(context.Background(), "c1", "nope")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProgressStore_ListPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := store.Upsert(ctx, record(valueobjects.StoryID(fmt.Sprintf("s%d", i)), 10, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	var seen []valueobjects.StoryID
	token := ""
	for {
		page, err := store.ListForChild(ctx, "c1", ports.PageRequest{Limit: 2, Token: token})
		require.NoError(t, err)
		for _, r := range page.Records {
			seen = append(seen, r.StoryID)
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	assert.Equal(t, []valueobjects.StoryID{"s4", "s3", "s2", "s1", "s0"}, seen)
}

func TestProgressStore_CancelledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewProgressStore(zap.NewNop())

	_, err := store.Upsert(ctx, record("s1", 10, base))

	assert.True(t, pkgerrors.IsUnavailable(err))
	_, err = store.Get(context.Background(), "c1", "s1")
	assert.True(t, pkgerrors.IsNotFound(err), "no partial write on failure")
}

func newEvent(id string, story valueobjects.StoryID, et valueobjects.EventType, at time.Time) *entities.InteractionEvent {
	return &entities.InteractionEvent{
		EventID: valueobjects.EventID(id), UserID: "u1", ChildID: "c1", StoryID: story, EventType: et, Timestamp: at,
	}
}

func TestEventLog_AppendIsMonotonic(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog(zap.NewNop())

	previous := 0
	for i := 0; i < 4; i++ {
		require.NoError(t, log.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "s1", valueobjects.EventTypeView, base.Add(time.Duration(i)*time.Second))))
		page, err := log.ListForChild(ctx, "c1", time.Time{}, ports.PageRequest{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(page.Events), previous)
		previous = len(page.Events)
	}
	assert.Equal(t, 4, previous)
}

func TestEventLog_AppendNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog(zap.NewNop())
	require.NoError(t, log.Append(ctx, newEvent("e1", "s1", valueobjects.EventTypeFavorite, base)))

	err := log.Append(ctx, newEvent("e1", "s1", valueobjects.EventTypeUnfavorite, base.Add(time.Second)))

	require.Error(t, err)
	winner, err := log.LastEventOfTypeSet(ctx, "c1", "s1", valueobjects.FavoriteEventTypes)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.EventTypeFavorite, winner.EventType)
	assert.Equal(t, 1, log.Len())
}

func TestEventLog_ListForChildSinceIsExclusive(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog(zap.NewNop())
	for i := 0; i < 3; i++ {
		require.NoError(t, log.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "s1", valueobjects.EventTypeView, base.Add(time.Duration(i)*time.Minute))))
	}

	page, err := log.ListForChild(ctx, "c1", base.Add(time.Minute), ports.PageRequest{})

	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, valueobjects.EventID("e2"), page.Events[0].EventID)
}

func TestEventLog_ListPagination(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog(zap.NewNop())
	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "s1", valueobjects.EventTypeView, base)))
	}

	first, err := log.ListForChildStory(ctx, "c1", "s1", ports.PageRequest{Limit: 3})
	require.NoError(t, err)
	require.NotEmpty(t, first.NextToken)
	second, err := log.ListForChildStory(ctx, "c1", "s1", ports.PageRequest{Limit: 3, Token: first.NextToken})
	require.NoError(t, err)

	var ids []valueobjects.EventID
	for _, e := range append(first.Events, second.Events...) {
		ids = append(ids, e.EventID)
	}
	assert.Equal(t, []valueobjects.EventID{"e4", "e3", "e2", "e1", "e0"}, ids)
	assert.Empty(t, second.NextToken)
}

func TestEventLog_LastEventOfTypeSet(t *testing.T) {
	ctx := context.Background()
	log := NewEventLog(zap.NewNop())
	require.NoError(t, log.Append(ctx, newEvent("e1", "s2", valueobjects.EventTypeFavorite, base)))
	require.NoError(t, log.Append(ctx, newEvent("e2", "s2", valueobjects.EventTypeUnfavorite, base.Add(time.Minute))))
	require.NoError(t, log.Append(ctx, newEvent("e3", "s2", valueobjects.EventTypeFavorite, base.Add(2*time.Minute))))
	require.NoError(t, log.Append(ctx, newEvent("e4", "s2", valueobjects.EventTypeView, base.Add(3*time.Minute))))

	winner, err := log.LastEventOfTypeSet(ctx, "c1", "s2", valueobjects.FavoriteEventTypes)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, valueobjects.EventID("e3"), winner.EventID)

	none, err := log.LastEventOfTypeSet(ctx, "c1", "s9", valueobjects.FavoriteEventTypes)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(
		&entities.Story{StoryID: "a", Published: true, Categories: []string{"animals"}, AgeRange: "3-5", CreatedAt: base},
		&entities.Story{StoryID: "b", Published: true, Categories: []string{"space"}, AgeRange: "6-8", CreatedAt: base.Add(time.Hour)},
		&entities.Story{StoryID: "c", Published: false, Categories: []string{"animals"}, CreatedAt: base.Add(2 * time.Hour)},
	)

	t.Run("lookup hides unpublished", func(t *testing.T) {
		story, err := catalog.Lookup(ctx, "c")
		require.NoError(t, err)
		assert.Nil(t, story)
	})

	t.Run("lookup many returns found only", func(t *testing.T) {
		found, err := catalog.LookupMany(ctx, []valueobjects.StoryID{"a", "b", "c", "zzz"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("list newest first", func(t *testing.T) {
		page, err := catalog.List(ctx, ports.StoryFilter{}, ports.PageRequest{Limit: 1})
		require.NoError(t, err)
		require.Len(t, page.Stories, 1)
		assert.Equal(t, valueobjects.StoryID("b"), page.Stories[0].StoryID)

		next, err := catalog.List(ctx, ports.StoryFilter{}, ports.PageRequest{Limit: 1, Token: page.NextToken})
		require.NoError(t, err)
		require.Len(t, next.Stories, 1)
		assert.Equal(t, valueobjects.StoryID("a"), next.Stories[0].StoryID)
		assert.Empty(t, next.NextToken)
	})

	t.Run("list by category", func(t *testing.T) {
		page, err := catalog.List(ctx, ports.StoryFilter{Category: "animals"}, ports.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Stories, 1)
		assert.Equal(t, valueobjects.StoryID("a"), page.Stories[0].StoryID)
	})
}

func TestChildDirectory(t *testing.T) {
	dir := NewChildDirectory()
	dir.Put("c1", "u1")

	owner, err := dir.OwnerOf(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID("u1"), owner)

	_, err = dir.OwnerOf(context.Background(), "c2")
	assert.True(t, pkgerrors.IsNotFound(err))
}
