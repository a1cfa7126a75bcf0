package entities

import (
	"testing"
	"time"

	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func baseUpdate() ProgressUpdate {
	return ProgressUpdate{
		UserID:    "u-1",
		ChildID:   "c-1",
		StoryID:   "s-1",
		PageIndex: 2,
	}
}

func TestNewProgressRecord(t *testing.T) {
	tests := []struct {
		name           string
		pageIndex      int
		percentage     int
		completed      bool
		clamp          bool
		wantPage       int
		wantPercentage int
		wantErr        bool
	}{
		{name: "in range", pageIndex: 2, percentage: 40, clamp: true, wantPage: 2, wantPercentage: 40},
		{name: "clamps high percentage", pageIndex: 3, percentage: 140, clamp: true, wantPage: 3, wantPercentage: 100},
		{name: "clamps negative values", pageIndex: -4, percentage: -1, clamp: true, wantPage: 0, wantPercentage: 0},
		{name: "completed forces 100", pageIndex: 9, percentage: 12, completed: true, clamp: true, wantPage: 9, wantPercentage: 100},
		{name: "strict rejects high percentage", percentage: 101, wantErr: true},
		{name: "strict rejects negative page", pageIndex: -1, percentage: 10, wantErr: true},
		{name: "strict accepts bounds", pageIndex: 0, percentage: 100, wantPage: 0, wantPercentage: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := baseUpdate()
			u.PageIndex = tt.pageIndex
			u.Percentage = tt.percentage
			u.Completed = tt.completed

			record, err := NewProgressRecord(u, tt.clamp, testNow)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsInvalidInput(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, record.PageIndex)
			assert.Equal(t, tt.wantPercentage, record.Percentage)
			assert.Equal(t, testNow, record.LastRead)
			assert.Equal(t, tt.completed, record.Completed)
			if tt.completed {
				require.NotNil(t, record.CompletedAt)
				assert.Equal(t, testNow, *record.CompletedAt)
			} else {
				assert.Nil(t, record.CompletedAt)
			}
		})
	}
}

func TestProgressRecord_Status(t *testing.T) {
	var absent *ProgressRecord
	assert.Equal(t, StatusNotStarted, absent.Status())
	assert.Equal(t, StatusInProgress, (&ProgressRecord{Percentage: 40}).Status())
	assert.Equal(t, StatusCompleted, (&ProgressRecord{Completed: true, Percentage: 100}).Status())
}

func TestProgressRecord_SupersededBy(t *testing.T) {
	older := &ProgressRecord{LastRead: testNow}
	newer := &ProgressRecord{LastRead: testNow.Add(time.Second)}

	assert.True(t, older.SupersededBy(newer))
	assert.False(t, newer.SupersededBy(older))
	assert.True(t, older.SupersededBy(&ProgressRecord{LastRead: testNow}), "equal timestamps let the later write land")

	var absent *ProgressRecord
	assert.True(t, absent.SupersededBy(older))
}

func TestInteractionEvent_After(t *testing.T) {
	a := &InteractionEvent{EventID: "0001", Timestamp: testNow}
	b := &InteractionEvent{EventID: "0002", Timestamp: testNow}
	c := &InteractionEvent{EventID: "0000", Timestamp: testNow.Add(time.Millisecond)}

	assert.True(t, b.After(a), "same timestamp: larger id wins")
	assert.False(t, a.After(b))
	assert.True(t, c.After(b), "later timestamp wins regardless of id")
	assert.True(t, a.After(nil))
}

func TestNewInteractionEvent(t *testing.T) {
	meta := EventMetadata{SessionID: "sess", DeviceType: "tablet", Source: "story_page"}

	e := NewInteractionEvent("u-1", "c-1", "s-1", valueobjects.EventTypeFavorite, meta, testNow)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, valueobjects.EventTypeFavorite, e.EventType)
	assert.Equal(t, testNow, e.Timestamp)
	assert.Equal(t, "tablet", e.DeviceType)
}
