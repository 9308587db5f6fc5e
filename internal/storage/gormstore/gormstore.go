// Package gormstore persists missions through GORM to SQLite or Postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aydocorp/opscomposer/internal/database"
	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/internal/model"
	"github.com/aydocorp/opscomposer/internal/model/convert"
	"github.com/aydocorp/opscomposer/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Backend stores missions in a relational database.
type Backend struct {
	db     *gorm.DB
	ids    *idalloc.Allocator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New wraps an open database.
func New(db *gorm.DB, opts ...Option) *Backend {
	b := &Backend{
		db:     db,
		ids:    idalloc.New(),
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init migrates the schema.
func (b *Backend) Init() error {
	return database.Setup(b.db, b.logger)
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

func preloaded(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Vessels", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") })
}

// List returns every mission, most recently updated first.
func (b *Backend) List(ctx context.Context) ([]core.Mission, error) {
	var rows []model.Mission
	if err := preloaded(b.db.WithContext(ctx)).Order("updated_at desc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	out := make([]core.Mission, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.MissionToCore(r))
	}
	return out, nil
}

// Get returns one mission.
func (b *Backend) Get(ctx context.Context, id string) (core.Mission, error) {
	row, err := b.find(preloaded(b.db.WithContext(ctx)), id)
	if err != nil {
		return core.Mission{}, err
	}
	return convert.MissionToCore(row), nil
}

func (b *Backend) find(tx *gorm.DB, id string) (model.Mission, error) {
	var row model.Mission
	err := tx.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, core.ErrMissionNotFound
	}
	if err != nil {
		return row, fmt.Errorf("failed to load mission %s: %w", id, err)
	}
	return row, nil
}

// Create stores a new mission under a fresh id.
func (b *Backend) Create(ctx context.Context, in core.MissionInput) (core.Mission, error) {
	now := b.now()
	m := core.Mission{
		ID:           b.ids.Next(idalloc.MissionPrefix),
		MissionInput: in.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return writeMission(tx, convert.CoreToMission(m), true)
	})
	if err != nil {
		return core.Mission{}, fmt.Errorf("failed to create mission: %w", err)
	}
	b.logger.Debug("Mission created", "missionId", m.ID, "participants", len(m.Participants))
	return m.Clone(), nil
}

// Update replaces the stored input of an existing mission. Child rows are
// rewritten so roster order always matches the input.
func (b *Backend) Update(ctx context.Context, id string, in core.MissionInput) (core.Mission, error) {
	var m core.Mission
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev, err := b.find(tx, id)
		if err != nil {
			return err
		}
		m = core.Mission{
			ID:           id,
			MissionInput: in.Clone(),
			CreatedAt:    prev.CreatedAt,
			UpdatedAt:    b.now(),
		}
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		return writeMission(tx, convert.CoreToMission(m), false)
	})
	if errors.Is(err, core.ErrMissionNotFound) {
		return core.Mission{}, err
	}
	if err != nil {
		return core.Mission{}, fmt.Errorf("failed to update mission %s: %w", id, err)
	}
	b.logger.Debug("Mission updated", "missionId", id)
	return m.Clone(), nil
}

// Delete removes a mission and its roster.
func (b *Backend) Delete(ctx context.Context, id string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Mission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return core.ErrMissionNotFound
		}
		return nil
	})
	if errors.Is(err, core.ErrMissionNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete mission %s: %w", id, err)
	}
	b.logger.Debug("Mission deleted", "missionId", id)
	return nil
}

func writeMission(tx *gorm.DB, row model.Mission, create bool) error {
	participants, vessels := row.Participants, row.Vessels
	row.Participants, row.Vessels = nil, nil

	q := tx.Omit(clause.Associations)
	if create {
		q = q.Create(&row)
	} else {
		q = q.Save(&row)
	}
	if q.Error != nil {
		return q.Error
	}
	if len(participants) > 0 {
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
	}
	if len(vessels) > 0 {
		if err := tx.Create(&vessels).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, missionID string) error {
	if err := tx.Where("mission_id = ?", missionID).Delete(&model.Participant{}).Error; err != nil {
		return err
	}
	return tx.Where("mission_id = ?", missionID).Delete(&model.MissionVessel{}).Error
}
