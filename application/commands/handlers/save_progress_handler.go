package handlers

import (
	"context"
	"fmt"

	"twinklepod/application/commands"
	"twinklepod/application/commands/bus"
	"twinklepod/application/ports"
	"twinklepod/domain/config"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/pkg/utils"

	"go.uber.org/zap"
)

// SaveProgressHandler applies the progress rules and upserts the record
type SaveProgressHandler struct {
	repo   ports.ProgressRepository
	config *config.DomainConfig
	clock  utils.Clock
	logger *zap.Logger
}

// NewSaveProgressHandler creates a new handler
func NewSaveProgressHandler(repo ports.ProgressRepository, cfg *config.DomainConfig, clock utils.Clock, logger *zap.Logger) *SaveProgressHandler {
	return &SaveProgressHandler{repo: repo, config: cfg, clock: clock, logger: logger}
}

// Handle returns the stored *entities.ProgressRecord
func (h *SaveProgressHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.SaveProgressCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	update := entities.ProgressUpdate{
		UserID:     valueobjects.UserID(c.UserID),
		ChildID:    valueobjects.ChildID(c.ChildID),
		StoryID:    valueobjects.StoryID(c.StoryID),
		PageIndex:  c.PageIndex,
		Percentage: c.Percentage,
		Completed:  c.Completed,
	}
	record, err := entities.NewProgressRecord(update, h.config.ClampOutOfRange, h.clock())
	if err != nil {
		return nil, err
	}

	stored, err := h.repo.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("progress saved",
		zap.String("child_id", c.ChildID),
		zap.String("story_id", c.StoryID),
		zap.Int("percentage", stored.Percentage),
		zap.Bool("completed", stored.Completed))
	return stored, nil
}
