package entities

import (
	"time"

	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// ReadingStatus classifies a story in a child's library
type ReadingStatus string

const (
	StatusNotStarted ReadingStatus = "not_started"
	StatusInProgress ReadingStatus = "in_progress"
	StatusCompleted  ReadingStatus = "completed"
)

// ProgressUpdate is one page-turn write as received from a client
type ProgressUpdate struct {
	UserID     valueobjects.UserID
	ChildID    valueobjects.ChildID
	StoryID    valueobjects.StoryID
	PageIndex  int
	Percentage int
	Completed  bool
}

// ProgressRecord is the single most recent reading position for one (child, story) pair.
// A new write replaces the previous record; records are never deleted.
type ProgressRecord struct {
	UserID      valueobjects.UserID  `json:"user_id"`
	ChildID     valueobjects.ChildID `json:"child_id"`
	StoryID     valueobjects.StoryID `json:"story_id"`
	PageIndex   int                  `json:"page_index"`
	Percentage  int                  `json:"percentage"`
	LastRead    time.Time            `json:"last_read"`
	Completed   bool                 `json:"completed"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// NewProgressRecord applies the progress rules to an update stamped at now.
// With clamp set, page_index and percentage are forced into range; otherwise
// out-of-range values are rejected. Completion always means 100%.
func NewProgressRecord(u ProgressUpdate, clamp bool, now time.Time) (*ProgressRecord, error) {
	if !clamp {
		if u.PageIndex < 0 {
			return nil, pkgerrors.NewInvalidInputError("page_index must be non-negative")
		}
		if u.Percentage < 0 || u.Percentage > 100 {
			return nil, pkgerrors.NewInvalidInputError("percentage must be between 0 and 100")
		}
	}

	record := &ProgressRecord{
		UserID:     u.UserID,
		ChildID:    u.ChildID,
		StoryID:    u.StoryID,
		PageIndex:  clampInt(u.PageIndex, 0, int(^uint(0)>>1)),
		Percentage: clampInt(u.Percentage, 0, 100),
		LastRead:   now,
	}

	if u.Completed {
		completedAt := now
		record.Completed = true
		record.Percentage = 100
		record.CompletedAt = &completedAt
	}

	return record, nil
}

// Status classifies the record for library display
func (p *ProgressRecord) Status() ReadingStatus {
	if p == nil {
		return StatusNotStarted
	}
	if p.Completed {
		return StatusCompleted
	}
	return StatusInProgress
}

// SupersededBy reports whether other should replace p under last-write-wins
func (p *ProgressRecord) SupersededBy(other *ProgressRecord) bool {
	return p == nil || !other.LastRead.Before(p.LastRead)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
