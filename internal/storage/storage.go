// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// ErrNotFound is returned by every backend for an unknown mission id.
var ErrNotFound = core.ErrMissionNotFound

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Mission management. Create assigns the id and both timestamps; Update
	// keeps CreatedAt and refreshes UpdatedAt.
	List(ctx context.Context) ([]core.Mission, error)
	Get(ctx context.Context, id string) (core.Mission, error)
	Create(ctx context.Context, in core.MissionInput) (core.Mission, error)
	Update(ctx context.Context, id string, in core.MissionInput) (core.Mission, error)
	Delete(ctx context.Context, id string) error
}
