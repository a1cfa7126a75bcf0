package handlers

import (
	"context"
	"fmt"

	"twinklepod/application/ports"
	"twinklepod/application/queries"
	"twinklepod/application/queries/bus"
	"twinklepod/domain/config"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// GetStoryHandler looks up one published story
type GetStoryHandler struct {
	catalog ports.StoryCatalog
}

// NewGetStoryHandler creates a new handler
func NewGetStoryHandler(catalog ports.StoryCatalog) *GetStoryHandler {
	return &GetStoryHandler{catalog: catalog}
}

// Handle returns a *entities.Story
func (h *GetStoryHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetStoryQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	story, err := h.catalog.Lookup(ctx, valueobjects.StoryID(query.StoryID))
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, pkgerrors.NewNotFoundError("story")
	}
	return story, nil
}

// ListStoriesHandler lists the published catalog
type ListStoriesHandler struct {
	catalog ports.StoryCatalog
	config  *config.DomainConfig
}

// NewListStoriesHandler creates a new handler
func NewListStoriesHandler(catalog ports.StoryCatalog, cfg *config.DomainConfig) *ListStoriesHandler {
	return &ListStoriesHandler{catalog: catalog, config: cfg}
}

// Handle returns a *queries.ListStoriesResult
func (h *ListStoriesHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListStoriesQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	page, err := h.catalog.List(ctx,
		ports.StoryFilter{Category: query.Category, AgeRange: query.AgeRange},
		ports.PageRequest{Limit: h.config.ListPageSize(query.Limit), Token: query.Cursor})
	if err != nil {
		return nil, err
	}
	return &queries.ListStoriesResult{Stories: page.Stories, NextCursor: page.NextToken}, nil
}
