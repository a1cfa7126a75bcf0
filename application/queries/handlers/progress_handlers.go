package handlers

import (
	"context"
	"fmt"

	"twinklepod/application/ports"
	"twinklepod/application/queries"
	"twinklepod/application/queries/bus"
	"twinklepod/domain/config"
	"twinklepod/domain/core/valueobjects"
)

// GetProgressHandler reads one progress record; absence is NotFound
type GetProgressHandler struct {
	repo ports.ProgressRepository
}

// NewGetProgressHandler creates a new handler
func NewGetProgressHandler(repo ports.ProgressRepository) *GetProgressHandler {
	return &GetProgressHandler{repo: repo}
}

// Handle returns a *entities.ProgressRecord
func (h *GetProgressHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetProgressQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.repo.Get(ctx, valueobjects.ChildID(query.ChildID), valueobjects.StoryID(query.StoryID))
}

// ListProgressHandler pages through a child's progress, most recently read first
type ListProgressHandler struct {
	repo   ports.ProgressRepository
	config *config.DomainConfig
}

// NewListProgressHandler creates a new handler
func NewListProgressHandler(repo ports.ProgressRepository, cfg *config.DomainConfig) *ListProgressHandler {
	return &ListProgressHandler{repo: repo, config: cfg}
}

// Handle returns a *queries.ListProgressResult
func (h *ListProgressHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListProgressQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	page, err := h.repo.ListForChild(ctx, valueobjects.ChildID(query.ChildID), ports.PageRequest{
		Limit: h.config.ListPageSize(query.Limit),
		Token: query.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &queries.ListProgressResult{Records: page.Records, NextCursor: page.NextToken}, nil
}
