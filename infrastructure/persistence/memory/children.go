package memory

import (
	"context"
	"sync"

	"twinklepod/application/ports"
	"twinklepod/domain/core/valueobjects"
	pkgerrors "twinklepod/pkg/errors"
)

// ChildDirectory maps child profiles to their owning account
type ChildDirectory struct {
	mu     sync.RWMutex
	owners map[valueobjects.ChildID]valueobjects.UserID
}

var _ ports.ChildDirectory = (*ChildDirectory)(nil)

// NewChildDirectory creates an empty directory
func NewChildDirectory() *ChildDirectory {
	return &ChildDirectory{owners: make(map[valueobjects.ChildID]valueobjects.UserID)}
}

// Put registers a child profile
func (d *ChildDirectory) Put(childID valueobjects.ChildID, userID valueobjects.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.owners[childID] = userID
}

// OwnerOf implements ports.ChildDirectory
func (d *ChildDirectory) OwnerOf(ctx context.Context, childID valueobjects.ChildID) (valueobjects.UserID, error) {
	if err := checkContext(ctx, "children.owner"); err != nil {
		return "", err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	owner, ok := d.owners[childID]
	if !ok {
		return "", pkgerrors.NewNotFoundError("child")
	}
	return owner, nil
}
