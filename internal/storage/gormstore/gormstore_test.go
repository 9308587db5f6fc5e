package gormstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aydocorp/opscomposer/internal/database"
	"github.com/aydocorp/opscomposer/internal/model"
	"github.com/aydocorp/opscomposer/internal/storage"
	"github.com/aydocorp/opscomposer/internal/storage/gormstore"
	"github.com/aydocorp/opscomposer/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*gormstore.Backend)(nil)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.GetSqliteDB(filepath.Join(t.TempDir(), "missions.db"), nil)
	require.NoError(t, err)
	return db
}

func newTestBackend(t *testing.T, opts ...gormstore.Option) *gormstore.Backend {
	t.Helper()
	b := gormstore.New(openTestDB(t), opts...)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackendContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return newTestBackend(t)
	})
}

func TestUpdate_RewritesRosterRows(t *testing.T) {
	db := openTestDB(t)
	b := gormstore.New(db)
	require.NoError(t, b.Init())
	defer b.Close()
	ctx := context.Background()

	created, err := b.Create(ctx, storagetest.SampleInput())
	require.NoError(t, err)

	in := storagetest.SampleInput()
	in.Participants = in.Participants[1:]
	_, err = b.Update(ctx, created.ID, in)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Participant{}).Where("mission_id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	got, err := b.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.Participants[0].UserID)
	assert.True(t, got.Participants[0].GroundSupport)
}

func TestDelete_RemovesRosterRows(t *testing.T) {
	db := openTestDB(t)
	b := gormstore.New(db)
	require.NoError(t, b.Init())
	defer b.Close()
	ctx := context.Background()

	created, err := b.Create(ctx, storagetest.SampleInput())
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, created.ID))

	var participants, vessels int64
	db.Model(&model.Participant{}).Count(&participants)
	db.Model(&model.MissionVessel{}).Count(&vessels)
	assert.Zero(t, participants)
	assert.Zero(t, vessels)
}

func TestClock_TimestampsComeFromBackend(t *testing.T) {
	fixed := time.Date(2953, 4, 1, 20, 0, 0, 0, time.UTC)
	b := newTestBackend(t, gormstore.WithClock(func() time.Time { return fixed }))

	created, err := b.Create(context.Background(), storagetest.SampleInput())
	require.NoError(t, err)

	got, err := b.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got.CreatedAt))
	assert.True(t, fixed.Equal(got.UpdatedAt))
}

func TestGet_CapacityNilVersusZero(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	in := storagetest.SampleInput()
	unlimited := in.Vessels[0]
	unlimited.VesselID = "v-unlimited"
	unlimited.CrewCapacity = nil
	zero := in.Vessels[0]
	zero.VesselID = "v-zero"
	zero.CrewCapacity = new(int)
	in.Vessels = append(in.Vessels, unlimited, zero)

	created, err := b.Create(ctx, in)
	require.NoError(t, err)
	got, err := b.Get(ctx, created.ID)
	require.NoError(t, err)

	require.Len(t, got.Vessels, 3)
	assert.Nil(t, got.Vessels[1].CrewCapacity)
	require.NotNil(t, got.Vessels[2].CrewCapacity)
	assert.Equal(t, 0, *got.Vessels[2].CrewCapacity)
}
