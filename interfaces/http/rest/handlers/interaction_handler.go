package handlers

import (
	"net/http"
	"time"

	"twinklepod/application/commands"
	"twinklepod/application/commands/bus"
	"twinklepod/application/queries"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/domain/core/entities"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"
	"twinklepod/pkg/utils"

	"go.uber.org/zap"
)

// InteractionHandler handles interaction-event HTTP requests
type InteractionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	guard      *ChildGuard
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	guard *ChildGuard,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *InteractionHandler {
	return &InteractionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		guard:      guard,
		errors:     errHandler,
		logger:     logger,
	}
}

// RecordEventRequest is one interaction reported by the app
type RecordEventRequest struct {
	ChildID   string            `json:"child_id" validate:"required,max=128,excludes=#"`
	StoryID   string            `json:"story_id" validate:"required,max=128,excludes=#"`
	EventType string            `json:"event_type" validate:"required,oneof=view favorite unfavorite complete"`
	Metadata  *EventMetadataDTO `json:"metadata,omitempty"`
}

// EventMetadataDTO carries optional client context
type EventMetadataDTO struct {
	SessionID  string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	DeviceType string `json:"device_type,omitempty" validate:"omitempty,max=64"`
	Source     string `json:"source,omitempty" validate:"omitempty,max=64"`
}

// RecordEvent handles POST /api/interaction
func (h *InteractionHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req RecordEventRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	userID, err := h.guard.Authorize(r.Context(), req.ChildID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.RecordEventCommand{
		UserID:    userID,
		ChildID:   req.ChildID,
		StoryID:   req.StoryID,
		EventType: req.EventType,
	}
	if req.Metadata != nil {
		cmd.Metadata = entities.EventMetadata{
			SessionID:  req.Metadata.SessionID,
			DeviceType: req.Metadata.DeviceType,
			Source:     req.Metadata.Source,
		}
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.logger.Debug("Failed to record event",
			zap.String("childID", req.ChildID),
			zap.String("eventType", req.EventType),
			zap.Error(err))
		h.errors.Handle(w, r, err)
		return
	}

	event, ok := result.(*entities.InteractionEvent)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/interaction. With story_id it pages through
// that story's history; otherwise the child's history after since.
func (h *InteractionHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	childID := q.Get("child_id")

	if _, err := h.guard.Authorize(r.Context(), childID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var since time.Time
	if raw := q.Get("since"); raw != "" {
		parsed, err := utils.ParseRFC3339(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewInvalidInputError("since must be an RFC3339 timestamp"))
			return
		}
		since = parsed
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListEventsQuery{
		ChildID: childID,
		StoryID: q.Get("story_id"),
		Since:   since,
		Cursor:  q.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	page, ok := result.(*queries.ListEventsResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondWithMeta(w, http.StatusOK, page, requestMeta(r, page.NextCursor))
}
