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

// ListEventsHandler pages through a child's interaction history
type ListEventsHandler struct {
	log    ports.EventLog
	config *config.DomainConfig
}

// NewListEventsHandler creates a new handler
func NewListEventsHandler(log ports.EventLog, cfg *config.DomainConfig) *ListEventsHandler {
	return &ListEventsHandler{log: log, config: cfg}
}

// Handle returns a *queries.ListEventsResult
func (h *ListEventsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListEventsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	childID := valueobjects.ChildID(query.ChildID)
	page := ports.PageRequest{Limit: h.config.ListPageSize(query.Limit), Token: query.Cursor}

	var (
		result *ports.EventPage
		err    error
	)
	if query.StoryID != "" {
		result, err = h.log.ListForChildStory(ctx, childID, valueobjects.StoryID(query.StoryID), page)
	} else {
		result, err = h.log.ListForChild(ctx, childID, query.Since, page)
	}
	if err != nil {
		return nil, err
	}
	return &queries.ListEventsResult{Events: result.Events, NextCursor: result.NextToken}, nil
}
