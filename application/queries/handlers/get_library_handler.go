package handlers

import (
	"context"
	"fmt"
	"time"

	"twinklepod/application/ports"
	"twinklepod/application/queries"
	"twinklepod/application/queries/bus"
	"twinklepod/domain/config"
	"twinklepod/domain/core/aggregates"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetchPageSize is the page size used when draining a child's progress and events
const fetchPageSize = 200

// LibraryObserver is told about every library built
type LibraryObserver interface {
	RecordLibrary(candidates, entries int, partial bool)
}

// GetLibraryHandler builds a child's library from progress, events and the catalog.
// It is read-only; any store failure aborts the whole build.
type GetLibraryHandler struct {
	progress ports.ProgressRepository
	events   ports.EventLog
	catalog  ports.StoryCatalog
	config   *config.DomainConfig
	clock    utils.Clock
	observer LibraryObserver
	logger   *zap.Logger
}

// NewGetLibraryHandler creates a new handler. observer may be nil.
func NewGetLibraryHandler(
	progress ports.ProgressRepository,
	events ports.EventLog,
	catalog ports.StoryCatalog,
	cfg *config.DomainConfig,
	clock utils.Clock,
	observer LibraryObserver,
	logger *zap.Logger,
) *GetLibraryHandler {
	return &GetLibraryHandler{
		progress: progress,
		events:   events,
		catalog:  catalog,
		config:   cfg,
		clock:    clock,
		observer: observer,
		logger:   logger,
	}
}

// Handle returns a *queries.GetLibraryResult
func (h *GetLibraryHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetLibraryQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	childID := valueobjects.ChildID(query.ChildID)

	after, err := aggregates.DecodeLibraryCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	records, err := h.allProgress(ctx, childID)
	if err != nil {
		return nil, err
	}
	events, err := h.recentEvents(ctx, childID)
	if err != nil {
		return nil, err
	}

	candidates := aggregates.CollectCandidates(records, events)
	if err := h.resolveFavorites(ctx, childID, candidates); err != nil {
		return nil, err
	}

	ids := make([]valueobjects.StoryID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.StoryID)
	}
	stories, err := h.catalog.LookupMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries, partial := aggregates.BuildLibrary(candidates, stories)
	if partial {
		h.logger.Info("library built with catalog misses",
			zap.String("child_id", query.ChildID),
			zap.Int("candidates", len(candidates)),
			zap.Int("entries", len(entries)))
	}
	if h.observer != nil {
		h.observer.RecordLibrary(len(candidates), len(entries), partial)
	}

	page, next := aggregates.Paginate(entries, after, h.config.LibraryPageSize(query.Limit))
	result := &queries.GetLibraryResult{Entries: page, Partial: partial}
	if next != nil {
		result.NextCursor = next.Encode()
	}
	return result, nil
}

func (h *GetLibraryHandler) allProgress(ctx context.Context, childID valueobjects.ChildID) ([]*entities.ProgressRecord, error) {
	var records []*entities.ProgressRecord
	token := ""
	for {
		page, err := h.progress.ListForChild(ctx, childID, ports.PageRequest{Limit: fetchPageSize, Token: token})
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.NextToken == "" {
			return records, nil
		}
		token = page.NextToken
	}
}

func (h *GetLibraryHandler) recentEvents(ctx context.Context, childID valueobjects.ChildID) ([]*entities.InteractionEvent, error) {
	var since time.Time
	if h.config.EventLookback > 0 {
		since = h.clock().Add(-h.config.EventLookback)
	}

	var events []*entities.InteractionEvent
	token := ""
	for {
		page, err := h.events.ListForChild(ctx, childID, since, ports.PageRequest{Limit: fetchPageSize, Token: token})
		if err != nil {
			return nil, err
		}
		events = append(events, page.Events...)
		if page.NextToken == "" {
			return events, nil
		}
		token = page.NextToken
	}
}

// resolveFavorites looks up the current favorite toggle of every candidate
// with bounded concurrency. Each goroutine writes only its own candidate.
func (h *GetLibraryHandler) resolveFavorites(ctx context.Context, childID valueobjects.ChildID, candidates []*aggregates.Candidate) error {
	g, gctx := errgroup.WithContext(ctx)
	if h.config.LookupConcurrency > 0 {
		g.SetLimit(h.config.LookupConcurrency)
	}

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			event, err := h.events.LastEventOfTypeSet(gctx, childID, c.StoryID, valueobjects.FavoriteEventTypes)
			if err != nil {
				return err
			}
			c.FavoriteEvent = event
			return nil
		})
	}
	return g.Wait()
}
