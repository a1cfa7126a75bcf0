package handlers

import (
	"net/http"

	"twinklepod/application/queries"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/pkg/common"
	pkgerrors "twinklepod/pkg/errors"

	"go.uber.org/zap"
)

// LibraryHandler serves a child's library
type LibraryHandler struct {
	queryBus *querybus.QueryBus
	guard    *ChildGuard
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(queryBus *querybus.QueryBus, guard *ChildGuard, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{
		queryBus: queryBus,
		guard:    guard,
		errors:   errHandler,
		logger:   logger,
	}
}

// GetLibrary handles GET /api/library. A partial library is still a 200; the
// partial flag tells the client some stories could not be resolved.
func (h *LibraryHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	childID := q.Get("child_id")

	if _, err := h.guard.Authorize(r.Context(), childID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetLibraryQuery{
		ChildID: childID,
		Cursor:  q.Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	library, ok := result.(*queries.GetLibraryResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	if library.Partial {
		h.logger.Info("Served partial library",
			zap.String("childID", childID),
			zap.Int("entries", len(library.Entries)))
	}

	meta := requestMeta(r, library.NextCursor)
	meta.Partial = library.Partial
	common.RespondWithMeta(w, http.StatusOK, library, meta)
}
