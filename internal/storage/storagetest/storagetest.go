// Package storagetest holds behaviour checks shared by every storage.Backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/aydocorp/opscomposer/internal/storage"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SampleInput returns a mission input with a vessel crew, a ground support
// member and an unassigned person.
func SampleInput() core.MissionInput {
	return core.MissionInput{
		Name:              "Supply Run",
		Type:              "Cargo Haul",
		Status:            core.StatusPlanning,
		ScheduledDateTime: "2953-04-01T20:00",
		Location:          "Port Olisar",
		BriefSummary:      "Move medical supplies.",
		DiagramLinks:      []string{"https://diagrams.example/1"},
		Participants: []core.Participant{
			{UserID: "u1", Handle: "Hauler", VesselID: "v1", VesselName: "Hull A", VesselType: "Hull A", Roles: []string{"Pilot"}},
			{UserID: "u2", Handle: "Doc", GroundSupport: true, Roles: []string{"Medic"}},
			{UserID: "u3", Handle: "Spare", Roles: []string{}},
		},
		Vessels: []core.SelectedVessel{
			{Vessel: core.Vessel{VesselID: "v1", Name: "Hull A", Type: "Hull A", Manufacturer: "MISC", CrewCapacity: core.IntPtr(2)}, OwnerID: "u1", OwnerName: "Hauler"},
		},
	}
}

// Run exercises the Backend contract against backends produced by newBackend.
// Each subtest gets a fresh, initialised backend.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	ctx := context.Background()

	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		b := newBackend(t)
		m, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		assert.NotEmpty(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
		assert.Equal(t, m.CreatedAt, m.UpdatedAt)
		assert.Equal(t, SampleInput(), m.MissionInput)
	})

	t.Run("GetReturnsSaved", func(t *testing.T) {
		b := newBackend(t)
		created, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		got, err := b.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, SampleInput(), got.MissionInput)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("GetUnknown", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateReplacesInput", func(t *testing.T) {
		b := newBackend(t)
		created, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)
		in := SampleInput()
		in.Name = "Supply Run II"
		in.Participants = in.Participants[:1]
		in.Vessels = nil

		updated, err := b.Update(ctx, created.ID, in)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		got, err := b.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Supply Run II", got.Name)
		assert.Len(t, got.Participants, 1)
		assert.Empty(t, got.Vessels)
	})

	t.Run("UpdateUnknown", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Update(ctx, "missing", SampleInput())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteRemoves", func(t *testing.T) {
		b := newBackend(t)
		created, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		require.NoError(t, b.Delete(ctx, created.ID))
		_, err = b.Get(ctx, created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, b.Delete(ctx, created.ID), storage.ErrNotFound)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		b := newBackend(t)
		first, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		second, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		list, err := b.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("ResultsAreDetached", func(t *testing.T) {
		b := newBackend(t)
		created, err := b.Create(ctx, SampleInput())
		require.NoError(t, err)

		created.Participants[0].Roles[0] = "Changed"
		got, err := b.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pilot"}, got.Participants[0].Roles)
	})
}
