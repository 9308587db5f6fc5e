package refdata

import (
	"testing"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{Name: "Cutlass Black", Manufacturer: "Drake", MaxCrew: core.IntPtr(3), MinCrew: 1, Size: "Medium", Roles: []string{"Light Freight"}, Length: 38},
		{Name: "Caterpillar", Manufacturer: "Drake", MaxCrew: core.IntPtr(5), MinCrew: 2, Size: "Large"},
		{ID: "hull-c", Name: "Hull C", Manufacturer: "MISC", Type: "Heavy Freight"},
		{Name: "   "},
	}
}

func TestNewCompendium_SkipsNamelessEntries(t *testing.T) {
	c, err := NewCompendium(testEntries(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"Drake", "MISC"}, c.Manufacturers())
}

func TestEntryVessel_Ids(t *testing.T) {
	vs := testEntries()

	cutlass := vs[0].Vessel()
	assert.True(t, idalloc.IsSynthetic(cutlass.VesselID, ShipPrefix))
	assert.Equal(t, cutlass.VesselID, vs[0].Vessel().VesselID)
	assert.Equal(t, "Cutlass Black", cutlass.Type)
	assert.Equal(t, 3, *cutlass.CrewCapacity)

	assert.Equal(t, "hull-c", vs[2].Vessel().VesselID)
	assert.Nil(t, vs[2].Vessel().CrewCapacity)
}

func TestVessels_ReturnsCopies(t *testing.T) {
	c, err := NewCompendium(testEntries(), 8)
	require.NoError(t, err)

	vs := c.Vessels()
	*vs[0].CrewCapacity = 99
	vs[0].RoleTags[0] = "changed"

	again := c.Vessels()
	assert.Equal(t, 3, *again[0].CrewCapacity)
	assert.Equal(t, "Light Freight", again[0].RoleTags[0])
}

func TestLookup(t *testing.T) {
	c, err := NewCompendium(testEntries(), 8)
	require.NoError(t, err)

	tests := []struct {
		name     string
		ship     string
		typ      string
		wantName string
		found    bool
	}{
		{"by name", "cutlass   BLACK", "", "Cutlass Black", true},
		{"by type as name", "Lucky Star", "Caterpillar", "Caterpillar", true},
		{"by type field", "Big Hauler", "heavy freight", "Hull C", true},
		{"contained name", "Drake Cutlass Black LX", "", "Cutlass Black", true},
		{"unknown", "Mystery", "Unknown", "", false},
		{"blank", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := c.Lookup(tt.ship, tt.typ)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantName, v.Name)

			v2, ok2 := c.Lookup(tt.ship, tt.typ)
			assert.Equal(t, ok, ok2)
			assert.Equal(t, v, v2)
		})
	}
}

func TestEmptyCompendium(t *testing.T) {
	c := EmptyCompendium()
	require.NotNil(t, c)
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Vessels())
	for i := 0; i < 2; i++ {
		_, ok := c.Lookup("Cutlass Black", "")
		assert.False(t, ok)
	}
}
