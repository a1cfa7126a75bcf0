package schema

import (
	"sort"
	"testing"
	"time"

	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "progress#c1#s1", ProgressKey("c1", "s1"))
	assert.Equal(t, "child#c1", ChildIndexKey("c1"))
	assert.Equal(t, "child#c1#story#s1", ChildStoryIndexKey("c1", "s1"))
	assert.Equal(t, "favorite#c1#s1", FavoriteIndexKey("c1", "s1"))
	assert.Equal(t, "CATEGORY#animals", CategoryListKey("animals"))
	assert.Equal(t, "AGE#3-5", AgeListKey("3-5"))
	assert.Equal(t, "PUBLISHED#true", PublishedListKey)

	pk, sk := StoryKey("s1")
	assert.Equal(t, "s1", pk)
	assert.Equal(t, "METADATA", sk)
}

func TestProgressKey_IsDeterministicAndCollisionFree(t *testing.T) {
	pairs := [][2]string{{"a", "bc"}, {"ab", "c"}, {"a-b", "c"}, {"a", "b-c"}}
	seen := map[string]bool{}
	for _, p := range pairs {
		child, err := valueobjects.NewChildID(p[0])
		require.NoError(t, err)
		story, err := valueobjects.NewStoryID(p[1])
		require.NoError(t, err)

		key := ProgressKey(child, story)
		assert.Equal(t, key, ProgressKey(child, story))
		assert.False(t, seen[key], "collision on %s", key)
		seen[key] = true
	}

	// ids carrying the separator never reach key derivation
	_, err := valueobjects.NewStoryID("b#c")
	assert.True(t, pkgerrors.IsInvalidInput(err))
}

func TestEventSortKey_OrdersByTimeThenID(t *testing.T) {
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	keys := []string{
		EventSortKey(base.Add(time.Second), "0001"),
		EventSortKey(base, "0002"),
		EventSortKey(base.Add(1500*time.Millisecond), "0000"),
		EventSortKey(base, "0001"),
		EventSortKey(base.Add(10*time.Hour), "0000"),
	}
	sort.Strings(keys)

	assert.Equal(t, []string{
		"2025-01-02T03:04:05.000000000Z#0001",
		"2025-01-02T03:04:05.000000000Z#0002",
		"2025-01-02T03:04:06.000000000Z#0001",
		"2025-01-02T03:04:06.500000000Z#0000",
		"2025-01-02T13:04:05.000000000Z#0000",
	}, keys)
}

func TestEventSortLowerBound_IsExclusive(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	bound := EventSortLowerBound(ts)

	assert.Greater(t, bound, EventSortKey(ts, valueobjects.NewEventID()))
	assert.Less(t, bound, EventSortKey(ts.Add(time.Nanosecond), "0000"))
}

func TestTimestampRoundTrip(t *testing.T) {
	local := time.Date(2025, 7, 4, 18, 30, 0, 123456789, time.FixedZone("X", 3600))

	parsed, err := ParseTimestamp(FormatTimestamp(local))

	require.NoError(t, err)
	assert.True(t, parsed.Equal(local))
	assert.Equal(t, time.UTC, parsed.Location())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	key := map[string]string{"pk": "progress#c1#s1", "child_key": "child#c1"}

	token := EncodeToken(key)
	decoded, err := DecodeToken(token)

	require.NoError(t, err)
	assert.Equal(t, key, decoded)
	assert.Empty(t, EncodeToken(nil))

	none, err := DecodeToken("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = DecodeToken("%%%")
	assert.True(t, pkgerrors.IsInvalidInput(err))
}

func TestTables_Indexes(t *testing.T) {
	tables := DefaultTables()
	names := map[string]bool{}
	for _, idx := range tables.Indexes() {
		names[idx.Name] = true
	}

	assert.True(t, names["child-progress-index"])
	assert.True(t, names["child-events-index"])
	assert.True(t, names["child-story-events-index"])
	assert.True(t, names["child-story-favorite-index"])
}
