package memory

import (
	"context"
	"sort"
	"sync"

	"twinklepod/application/ports"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"
)

// Catalog holds stories in memory. Unpublished stories are treated as absent.
type Catalog struct {
	mu      sync.RWMutex
	stories map[valueobjects.StoryID]*entities.Story
}

var _ ports.StoryCatalog = (*Catalog)(nil)

// NewCatalog creates a catalog seeded with stories
func NewCatalog(stories ...*entities.Story) *Catalog {
	c := &Catalog{stories: make(map[valueobjects.StoryID]*entities.Story)}
	for _, s := range stories {
		c.Put(s)
	}
	return c
}

// Put adds or replaces a story
func (c *Catalog) Put(story *entities.Story) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *story
	c.stories[story.StoryID] = &cp
}

// Remove deletes a story, as an unpublish would
func (c *Catalog) Remove(storyID valueobjects.StoryID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stories, storyID)
}

// Lookup implements ports.StoryCatalog
func (c *Catalog) Lookup(ctx context.Context, storyID valueobjects.StoryID) (*entities.Story, error) {
	if err := checkContext(ctx, "catalog.lookup"); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	story, ok := c.stories[storyID]
	if !ok || !story.Published {
		return nil, nil
	}
	cp := *story
	return &cp, nil
}

// LookupMany implements ports.StoryCatalog
func (c *Catalog) LookupMany(ctx context.Context, storyIDs []valueobjects.StoryID) (map[valueobjects.StoryID]*entities.Story, error) {
	if err := checkContext(ctx, "catalog.lookup_many"); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make(map[valueobjects.StoryID]*entities.Story, len(storyIDs))
	for _, id := range storyIDs {
		if story, ok := c.stories[id]; ok && story.Published {
			cp := *story
			found[id] = &cp
		}
	}
	return found, nil
}

// List implements ports.StoryCatalog
func (c *Catalog) List(ctx context.Context, filter ports.StoryFilter, page ports.PageRequest) (*ports.StoryPage, error) {
	if err := checkContext(ctx, "catalog.list"); err != nil {
		return nil, err
	}
	after, err := schema.DecodeToken(page.Token)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	var stories []*entities.Story
	for _, story := range c.stories {
		if story.Published && matchesFilter(story, filter) {
			cp := *story
			stories = append(stories, &cp)
		}
	}
	c.mu.RUnlock()

	sortKey := func(s *entities.Story) string { return schema.ListingSortKey(s.CreatedAt, s.StoryID) }
	sort.Slice(stories, func(i, j int) bool {
		return sortKey(stories[i]) > sortKey(stories[j])
	})

	start := 0
	if after != nil {
		bound, ok := after[schema.AttrSK]
		if !ok {
			return nil, pkgerrors.NewInvalidInputError("invalid continuation token")
		}
		start = sort.Search(len(stories), func(i int) bool {
			return sortKey(stories[i]) < bound
		})
	}

	end, more := window(len(stories), start, page.Limit)
	result := &ports.StoryPage{Stories: stories[start:end]}
	if more {
		result.NextToken = schema.EncodeToken(map[string]string{schema.AttrSK: sortKey(stories[end-1])})
	}
	return result, nil
}

func matchesFilter(story *entities.Story, filter ports.StoryFilter) bool {
	switch {
	case filter.Category != "":
		for _, category := range story.Categories {
			if category == filter.Category {
				return true
			}
		}
		return false
	case filter.AgeRange != "":
		return story.AgeRange == filter.AgeRange
	}
	return true
}
