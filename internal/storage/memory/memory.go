// internal/storage/memory/memory.go
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// Config holds memory backend settings.
type Config struct {
	SnapshotPath string
}

// snapshotVersion is written into snapshot files.
const snapshotVersion = 1

type snapshot struct {
	Version  int            `json:"version"`
	Missions []core.Mission `json:"missions"`
}

// Backend keeps missions in a map, optionally persisted to a JSON snapshot.
type Backend struct {
	cfg      Config
	missions map[string]core.Mission
	ids      *idalloc.Allocator
	now      func() time.Time
	mu       sync.RWMutex
}

// New creates a new memory backend
func New(cfg Config) *Backend {
	return &Backend{
		cfg:      cfg,
		missions: make(map[string]core.Mission),
		ids:      idalloc.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Init loads the snapshot file, if configured and present.
func (b *Backend) Init() error {
	if b.cfg.SnapshotPath == "" {
		return nil
	}
	data, err := os.ReadFile(b.cfg.SnapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range snap.Missions {
		b.missions[m.ID] = m
	}
	return nil
}

// Close writes the snapshot file, if configured.
func (b *Backend) Close() error {
	if b.cfg.SnapshotPath == "" {
		return nil
	}
	missions, _ := b.List(context.Background())

	data, err := json.MarshalIndent(snapshot{Version: snapshotVersion, Missions: missions}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.SnapshotPath), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := b.cfg.SnapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, b.cfg.SnapshotPath)
}

// List returns every mission, most recently updated first.
func (b *Backend) List(_ context.Context) ([]core.Mission, error) {
	b.mu.RLock()
	out := make([]core.Mission, 0, len(b.missions))
	for _, m := range b.missions {
		out = append(out, m.Clone())
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns one mission.
func (b *Backend) Get(_ context.Context, id string) (core.Mission, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.missions[id]
	if !ok {
		return core.Mission{}, core.ErrMissionNotFound
	}
	return m.Clone(), nil
}

// Create stores a new mission under a fresh id.
func (b *Backend) Create(_ context.Context, in core.MissionInput) (core.Mission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	m := core.Mission{
		ID:           b.ids.Next(idalloc.MissionPrefix),
		MissionInput: in.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	b.missions[m.ID] = m
	return m.Clone(), nil
}

// Update replaces the stored input of an existing mission.
func (b *Backend) Update(_ context.Context, id string, in core.MissionInput) (core.Mission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.missions[id]
	if !ok {
		return core.Mission{}, core.ErrMissionNotFound
	}
	m := core.Mission{
		ID:           id,
		MissionInput: in.Clone(),
		CreatedAt:    prev.CreatedAt,
		UpdatedAt:    b.now(),
	}
	b.missions[id] = m
	return m.Clone(), nil
}

// Delete removes a mission.
func (b *Backend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.missions[id]; !ok {
		return core.ErrMissionNotFound
	}
	delete(b.missions, id)
	return nil
}
