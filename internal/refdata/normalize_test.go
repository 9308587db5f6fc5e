package refdata

import (
	"testing"

	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVessel_UnresolvedGetsDefaults(t *testing.T) {
	n := NewNormalizer(nil)

	v := n.Vessel("u1", 0, core.RawShip{Name: "Homebuilt"})

	assert.Equal(t, "Homebuilt", v.Name)
	assert.Equal(t, "Homebuilt", v.Type)
	assert.Equal(t, UnknownManufacturer, v.Manufacturer)
	assert.Equal(t, DefaultSize, v.Size)
	assert.Equal(t, DefaultCrewRequirement, v.CrewRequirement)
	assert.Nil(t, v.CrewCapacity)
	assert.NotEmpty(t, v.VesselID)
}

func TestVessel_EnrichedFromCompendium(t *testing.T) {
	c, err := NewCompendium(testEntries(), 8)
	require.NoError(t, err)
	n := NewNormalizer(c)

	v := n.Vessel("u1", 0, core.RawShip{Name: "Lucky Star", Type: "Cutlass Black"})

	assert.Equal(t, "Lucky Star", v.Name)
	assert.Equal(t, "Cutlass Black", v.Type)
	assert.Equal(t, "Drake", v.Manufacturer)
	assert.Equal(t, "Medium", v.Size)
	require.NotNil(t, v.CrewCapacity)
	assert.Equal(t, 3, *v.CrewCapacity)
	assert.Equal(t, 1, v.CrewRequirement)
	assert.Equal(t, []string{"Light Freight"}, v.RoleTags)
	assert.Equal(t, 38.0, v.Length)
}

func TestVessel_DirectoryFieldsWin(t *testing.T) {
	c, err := NewCompendium(testEntries(), 8)
	require.NoError(t, err)
	n := NewNormalizer(c)

	v := n.Vessel("u1", 0, core.RawShip{
		ID: "ship-77", Name: "Caterpillar", Manufacturer: "Custom Yard", Crew: 7, Size: "Huge", Role: "Pirate",
	})

	assert.Equal(t, "ship-77", v.VesselID)
	assert.Equal(t, "Custom Yard", v.Manufacturer)
	assert.Equal(t, 7, *v.CrewCapacity)
	assert.Equal(t, 2, v.CrewRequirement)
	assert.Equal(t, "Huge", v.Size)
	assert.Equal(t, []string{"Pirate"}, v.RoleTags)
}

func TestVessel_StableIdsPerOwnerAndSlot(t *testing.T) {
	n := NewNormalizer(nil)
	raw := core.RawShip{Name: "Cutlass Black"}

	assert.Equal(t, n.Vessel("u1", 0, raw).VesselID, n.Vessel("u1", 0, raw).VesselID)
	assert.NotEqual(t, n.Vessel("u1", 0, raw).VesselID, n.Vessel("u1", 1, raw).VesselID)
	assert.NotEqual(t, n.Vessel("u1", 0, raw).VesselID, n.Vessel("u2", 0, raw).VesselID)
}

func TestPeople(t *testing.T) {
	n := NewNormalizer(nil)

	people := n.People([]core.DirectoryUser{
		{ID: "u1", AydoHandle: "Hauler", Ships: []core.RawShip{{Name: "A"}, {Name: "B"}}},
		{ID: "u2"},
		{AydoHandle: "no id"},
	})

	require.Len(t, people, 2)
	assert.Equal(t, "Hauler", people[0].DisplayName)
	assert.Len(t, people[0].OwnedVessels, 2)
	assert.Equal(t, "u2", people[1].DisplayName)
	assert.Empty(t, people[1].OwnedVessels)
}
