package composer

import (
	"context"
	"testing"

	"github.com/aydocorp/opscomposer/internal/selection"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []core.Vessel {
	return []core.Vessel{
		{VesselID: "ship-hullc", Name: "Hull C", Manufacturer: "MISC"},
		{VesselID: "ship-freelancer", Name: "Freelancer", Manufacturer: "MISC"},
		{VesselID: "ship-cutlass", Name: "Cutlass Black", Manufacturer: "Drake"},
	}
}

func rowIDs(rows []VesselRow) []string {
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.Vessel.VesselID)
	}
	return ids
}

func TestVesselPicker_Filter(t *testing.T) {
	p := NewVesselPicker(candidates(), selection.New())

	assert.Equal(t, []string{"Drake", "MISC"}, p.Manufacturers())
	assert.Len(t, p.Rows(), 3)

	p.SetManufacturer("misc")
	assert.Equal(t, []string{"ship-hullc", "ship-freelancer"}, rowIDs(p.Rows()))

	p.SetQuery("FREE")
	assert.Equal(t, []string{"ship-freelancer"}, rowIDs(p.Rows()))

	p.SetManufacturer("")
	p.SetQuery("c")
	assert.Equal(t, []string{"ship-hullc", "ship-freelancer", "ship-cutlass"}, rowIDs(p.Rows()))
}

func TestVesselPicker_CommitBatch(t *testing.T) {
	store := selection.New()
	var notifications int
	store.OnChange(func(core.MissionDraft) { notifications++ })
	p := NewVesselPicker(candidates(), store)

	assert.True(t, p.Check("ship-cutlass"))
	assert.True(t, p.Toggle("ship-hullc"))
	assert.False(t, p.Check("unknown"))
	assert.Equal(t, []string{"ship-hullc", "ship-cutlass"}, p.Checked())

	added := p.Commit()
	assert.Equal(t, []string{"ship-hullc", "ship-cutlass"}, added)
	assert.Equal(t, 1, notifications)
	assert.Empty(t, p.Checked())
	assert.Len(t, store.Snapshot().Vessels, 2)
}

func TestVesselPicker_AddedRowsNotCheckable(t *testing.T) {
	store := selection.New()
	store.AddVessel(candidates()[0], nil)
	p := NewVesselPicker(candidates(), store)

	rows := p.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Added)
	assert.False(t, rows[1].Added)

	assert.False(t, p.Check("ship-hullc"))
	assert.False(t, p.Toggle("ship-hullc"))
	assert.Nil(t, p.Commit())
}

func TestVesselPicker_Uncheck(t *testing.T) {
	p := NewVesselPicker(candidates(), selection.New())
	p.Check("ship-freelancer")
	assert.True(t, p.Rows()[1].Checked)

	assert.False(t, p.Toggle("ship-freelancer"))
	assert.False(t, p.Rows()[1].Checked)
}

func TestComposer_VesselPickerUsesCompendium(t *testing.T) {
	dir, cat := referenceSources()
	c := New(&fakePersister{}, newBus(t), WithReferenceSources(dir, cat))
	c.LoadReferenceData(context.Background())

	p := c.VesselPicker()
	rows := p.Rows()
	require.Len(t, rows, 3)
	require.True(t, p.Check(rows[2].Vessel.VesselID))
	assert.Len(t, p.Commit(), 1)

	again := c.VesselPicker().Rows()
	assert.True(t, again[2].Added)
}
