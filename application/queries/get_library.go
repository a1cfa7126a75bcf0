package queries

import (
	"twinklepod/domain/core/aggregates"
	"twinklepod/domain/core/valueobjects"
)

// GetLibraryQuery asks for one page of a child's library
type GetLibraryQuery struct {
	ChildID string
	Cursor  string
	Limit   int
}

// Validate validates the GetLibraryQuery
func (q GetLibraryQuery) Validate() error {
	if _, err := valueobjects.NewChildID(q.ChildID); err != nil {
		return err
	}
	_, err := aggregates.DecodeLibraryCursor(q.Cursor)
	return err
}

// GetLibraryResult is the library envelope. Partial is set when a story could
// not be joined against the catalog; it is not an error.
type GetLibraryResult struct {
	Entries    []aggregates.LibraryEntry `json:"entries"`
	NextCursor string                    `json:"next_cursor,omitempty"`
	Partial    bool                      `json:"partial"`
}
