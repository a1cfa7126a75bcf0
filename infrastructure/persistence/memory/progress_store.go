// Package memory is an in-process implementation of the store ports, used by
// tests and by the local server when STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"twinklepod/application/ports"
	"twinklepod/domain/core/entities"
	"twinklepod/domain/core/valueobjects"
	"twinklepod/infrastructure/persistence/schema"
	pkgerrors "twinklepod/pkg/errors"

	"go.uber.org/zap"
)

// ProgressStore keeps progress records keyed like the progress table.
// The mutex stands in for the per-key atomicity of a real store.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]*entities.ProgressRecord
	logger  *zap.Logger
}

var _ ports.ProgressRepository = (*ProgressStore)(nil)

// NewProgressStore creates an empty progress store
func NewProgressStore(logger *zap.Logger) *ProgressStore {
	return &ProgressStore{
		records: make(map[string]*entities.ProgressRecord),
		logger:  logger,
	}
}

// Upsert implements ports.ProgressRepository
func (s *ProgressStore) Upsert(ctx context.Context, record *entities.ProgressRecord) (*entities.ProgressRecord, error) {
	if err := checkContext(ctx, "progress.upsert"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := schema.ProgressKey(record.ChildID, record.StoryID)
	if existing, ok := s.records[key]; ok && !existing.SupersededBy(record) {
		s.logger.Debug("stale progress write ignored",
			zap.String("key", key),
			zap.Time("stored_last_read", existing.LastRead),
			zap.Time("incoming_last_read", record.LastRead))
		return copyProgress(existing), nil
	}

	s.records[key] = copyProgress(record)
	return copyProgress(record), nil
}

// Get implements ports.ProgressRepository
func (s *ProgressStore) Get(ctx context.Context, childID valueobjects.ChildID, storyID valueobjects.StoryID) (*entities.ProgressRecord, error) {
	if err := checkContext(ctx, "progress.get"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[schema.ProgressKey(childID, storyID)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("progress")
	}
	return copyProgress(record), nil
}

// ListForChild implements ports.ProgressRepository
func (s *ProgressStore) ListForChild(ctx context.Context, childID valueobjects.ChildID, page ports.PageRequest) (*ports.ProgressPage, error) {
	if err := checkContext(ctx, "progress.list"); err != nil {
		return nil, err
	}
	after, err := schema.DecodeToken(page.Token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var records []*entities.ProgressRecord
	for _, r := range s.records {
		if r.ChildID == childID {
			records = append(records, copyProgress(r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return progressBefore(records[i].LastRead, progressKey(records[i]), records[j].LastRead, progressKey(records[j]))
	})

	start := 0
	if after != nil {
		afterTime, err := schema.ParseTimestamp(after[schema.AttrLastRead])
		if err != nil {
			return nil, pkgerrors.NewInvalidInputError("invalid continuation token")
		}
		afterKey := after[schema.AttrPK]
		start = sort.Search(len(records), func(i int) bool {
			return progressBefore(afterTime, afterKey, records[i].LastRead, progressKey(records[i]))
		})
	}

	end, more := window(len(records), start, page.Limit)
	result := &ports.ProgressPage{Records: records[start:end]}
	if more {
		last := records[end-1]
		result.NextToken = schema.EncodeToken(map[string]string{
			schema.AttrPK:       progressKey(last),
			schema.AttrLastRead: schema.FormatTimestamp(last.LastRead),
		})
	}
	return result, nil
}

func progressKey(r *entities.ProgressRecord) string {
	return schema.ProgressKey(r.ChildID, r.StoryID)
}

// progressBefore mirrors the index order: last_read descending, key ascending
func progressBefore(aTime time.Time, aKey string, bTime time.Time, bKey string) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aKey < bKey
}

func copyProgress(r *entities.ProgressRecord) *entities.ProgressRecord {
	cp := *r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func checkContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewUnavailableError(operation, err)
	}
	return nil
}

// window returns the end of a page starting at start and whether items remain
func window(total, start, limit int) (end int, more bool) {
	if limit <= 0 || start+limit >= total {
		return total, false
	}
	return start + limit, true
}
