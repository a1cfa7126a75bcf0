package handlers

import (
	"net/http"

	"twinklepod/application/commands"
	"twinklepod/application/commands/bus"
	"twinklepod/application/queries"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/domain/core/entities"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"

	"go.uber.org/zap"
)

// ProgressHandler handles reading-progress HTTP requests
type ProgressHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	guard      *ChildGuard
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	guard *ChildGuard,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		guard:      guard,
		errors:     errHandler,
		logger:     logger,
	}
}

// SaveProgressRequest is a page turn reported by the reader. Range checks on
// page_index and percentage depend on the clamp setting, so they are not tags.
type SaveProgressRequest struct {
	ChildID    string `json:"child_id" validate:"required,max=128,excludes=#"`
	StoryID    string `json:"story_id" validate:"required,max=128,excludes=#"`
	PageIndex  int    `json:"page_index"`
	Percentage int    `json:"percentage"`
	Completed  bool   `json:"completed"`
}

// SaveProgress handles POST /api/progress
func (h *ProgressHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	var req SaveProgressRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	userID, err := h.guard.Authorize(r.Context(), req.ChildID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.SaveProgressCommand{
		UserID:     userID,
		ChildID:    req.ChildID,
		StoryID:    req.StoryID,
		PageIndex:  req.PageIndex,
		Percentage: req.Percentage,
		Completed:  req.Completed,
	})
	if err != nil {
		h.logger.Debug("Failed to save progress",
			zap.String("childID", req.ChildID),
			zap.String("storyID", req.StoryID),
			zap.Error(err))
		h.errors.Handle(w, r, err)
		return
	}

	record, ok := result.(*entities.ProgressRecord)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondJSON(w, http.StatusOK, record)
}

// GetProgress handles GET /api/progress. With story_id it returns one record,
// otherwise a page of the child's records, most recently read first.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	childID := q.Get("child_id")

	if _, err := h.guard.Authorize(r.Context(), childID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if storyID := q.Get("story_id"); storyID != "" {
		result, err := h.queryBus.Ask(r.Context(), queries.GetProgressQuery{ChildID: childID, StoryID: storyID})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, result)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.queryBus.Ask(r.Context(), queries.ListProgressQuery{
		ChildID: childID,
		Cursor:  q.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	page, ok := result.(*queries.ListProgressResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondWithMeta(w, http.StatusOK, page, requestMeta(r, page.NextCursor))
}
