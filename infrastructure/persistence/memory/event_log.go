package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"twinklepod/application/ports"
	"twinklepod/domain/core/aggregates"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"

	"go.uber.org/zap"
)

// EventLog is an append-only slice of interaction events
type EventLog struct {
	mu     sync.RWMutex
	events []*entities.InteractionEvent
	ids    map[valueobjects.EventID]struct{}
	logger *zap.Logger
}

var _ ports.EventLog = (*EventLog)(nil)

// NewEventLog creates an empty event log
func NewEventLog(logger *zap.Logger) *EventLog {
	return &EventLog{
		ids:    make(map[valueobjects.EventID]struct{}),
		logger: logger,
	}
}

// Append implements ports.EventLog
func (l *EventLog) Append(ctx context.Context, event *entities.InteractionEvent) error {
	if err := checkContext(ctx, "events.append"); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.ids[event.EventID]; exists {
		return pkgerrors.NewInternalError("event id already exists: " + event.EventID.String())
	}
	cp := *event
	l.events = append(l.events, &cp)
	l.ids[event.EventID] = struct{}{}
	return nil
}

// ListForChild implements ports.EventLog
func (l *EventLog) ListForChild(ctx context.Context, childID valueobjects.ChildID, since time.Time, page ports.PageRequest) (*ports.EventPage, error) {
	return l.list(ctx, page, func(e *entities.InteractionEvent) bool {
		return e.ChildID == childID && (since.IsZero() || e.Timestamp.After(since))
	})
}

// ListForChildStory implements ports.EventLog
func (l *EventLog) ListForChildStory(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, page ports.PageRequest) (*ports.EventPage, error) {
	return l.list(ctx, page, func(e *entities.InteractionEvent) bool {
		return e.ChildID == childID && e.StoryID == storyID
	})
}

// LastEventOfTypeSet implements ports.EventLog
func (l *EventLog) LastEventOfTypeSet(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID, types []valueobjects.EventType) (*entities.InteractionEvent, error) {
	if err := checkContext(ctx, "events.last_of_types"); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var forPair []*entities.InteractionEvent
	for _, e := range l.events {
		if e.ChildID == childID && e.StoryID == storyID {
			forPair = append(forPair, e)
		}
	}

	winner := aggregates.LatestOfTypes(forPair, types)
	if winner == nil {
		return nil, nil
	}
	cp := *winner
	return &cp, nil
}

// Len reports how many events have been appended
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

func (l *EventLog) list(ctx context.Context, page ports.PageRequest, match func(*entities.InteractionEvent) bool) (*ports.EventPage, error) {
	if err := checkContext(ctx, "events.list"); err != nil {
		return nil, err
	}
	after, err := schema.DecodeToken(page.Token)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	var events []*entities.InteractionEvent
	for _, e := range l.events {
		if match(e) {
			cp := *e
			events = append(events, &cp)
		}
	}
	l.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		return events[i].After(events[j])
	})

	start := 0
	if after != nil {
		bound := after[schema.AttrEventSort]
		start = sort.Search(len(events), func(i int) bool {
			return schema.EventSortKey(events[i].Timestamp, events[i].EventID) < bound
		})
	}

	end, more := window(len(events), start, page.Limit)
	result := &ports.EventPage{Events: events[start:end]}
	if more {
		last := events[end-1]
		result.NextToken = schema.EncodeToken(map[string]string{
			schema.AttrEventID:   last.EventID.String(),
			schema.AttrEventSort: schema.EventSortKey(last.Timestamp, last.EventID),
		})
	}
	return result, nil
}
