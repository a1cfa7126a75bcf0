package handlers

import (
	"net/http"

	"twinklepod/application/queries"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// StoryHandler serves the published catalog
type StoryHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(queryBus *querybus.QueryBus, errHandler *pkgerrors.ErrorHandler) *StoryHandler {
	return &StoryHandler{queryBus: queryBus, errors: errHandler}
}

// ListStories handles GET /stories/list
func (h *StoryHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListStoriesQuery{
		Category: q.Get("category"),
		AgeRange: q.Get("age_range"),
		Cursor:   q.Get("cursor"),
		Limit:    limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	page, ok := result.(*queries.ListStoriesResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	common.RespondWithMeta(w, http.StatusOK, page, requestMeta(r, page.NextCursor))
}

// GetStory handles GET /stories/{storyID}
func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetStoryQuery{StoryID: chi.URLParam(r, "storyID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
