package handlers

import (
	"context"
	"fmt"

	"twinklepod/application/commands"
	"twinklepod/application/commands/bus"
	"twinklepod/application/ports"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/pkg/utils"

	"go.uber.org/zap"
)

// RecordEventHandler appends interactions and forwards them to the publisher
type RecordEventHandler struct {
	log       ports.EventLog
	publisher ports.EventPublisher
	clock     utils.Clock
	logger    *zap.Logger
}

// NewRecordEventHandler creates a new handler. publisher may be nil.
func NewRecordEventHandler(log ports.EventLog, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *RecordEventHandler {
	return &RecordEventHandler{log: log, publisher: publisher, clock: clock, logger: logger}
}

// Handle returns the appended *entities.InteractionEvent
func (h *RecordEventHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.RecordEventCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	event := entities.NewInteractionEvent(
		valueobjects.UserID(c.UserID),
		valueobjects.ChildID(c.ChildID),
		valueobjects.StoryID(c.StoryID),
		valueobjects.EventType(c.EventType),
		c.Metadata,
		h.clock(),
	)

	if err := h.log.Append(ctx, event); err != nil {
		return nil, err
	}

	// The event is durable at this point; downstream delivery is best effort.
	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, []*entities.InteractionEvent{event}); err != nil {
			h.logger.Warn("failed to publish interaction event",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
		}
	}

	return event, nil
}
