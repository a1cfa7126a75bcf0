package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed(strings.NewReader(`
stories:
  - id: S1
    title: The Sleepy Owl
    categories: [bedtime]
    created_at: 2025-01-02T03:04:05Z
  - id: S2
    title: Draft
    unpublished: true
children:
  - id: C1
    user_id: U1
`))
	require.NoError(t, err)

	catalog := NewCatalog()
	children := NewChildDirectory()
	seed.Apply(catalog, children)

	story, err := catalog.Lookup(context.Background(), "S1")
	require.NoError(t, err)
	require.NotNil(t, story)
	assert.Equal(t, "The Sleepy Owl", story.Title)
	assert.Equal(t, 2025, story.CreatedAt.Year())

	draft, err := catalog.Lookup(context.Background(), "S2")
	require.NoError(t, err)
	assert.Nil(t, draft)

	owner, err := children.OwnerOf(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "U1", owner.String())
}

func TestLoadSeed_Empty(t *testing.T) {
	seed, err := LoadSeed(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, seed.Stories)
}

func TestLoadSeed_RejectsBadIDs(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("children:\n  - id: 'C#1'\n    user_id: U1\n"))
	assert.Error(t, err)

	_, err = LoadSeed(strings.NewReader("stories: [oops"))
	assert.Error(t, err)
}
