package idalloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_UsesPrefix(t *testing.T) {
	a := New()
	id := a.Next(VesselPrefix)
	assert.True(t, IsSynthetic(id, VesselPrefix), "got %s", id)
}

func TestNext_EmptyPrefixDefaultsToVessel(t *testing.T) {
	a := NewWithSource(func() string { return "x" })
	assert.Equal(t, "vessel-x", a.Next("  "))
}

func TestNext_SkipsRepeatedSourceValues(t *testing.T) {
	calls := 0
	seq := []string{"a", "a", "b"}
	a := NewWithSource(func() string {
		v := seq[calls]
		calls++
		return v
	})

	first := a.Next("v")
	second := a.Next("v")

	assert.Equal(t, "v-a", first)
	assert.Equal(t, "v-b", second)
}

func TestNext_Unique(t *testing.T) {
	a := New()
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := a.Next(fmt.Sprintf("p%d", i%3))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStable_Deterministic(t *testing.T) {
	a := Stable("ship", "Drake/Cutlass Black")
	b := Stable("ship", "drake/cutlass black")
	c := Stable("ship", "Drake/Cutlass Red")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, IsSynthetic(a, "ship"))
	assert.True(t, IsSynthetic(Stable("", "x"), VesselPrefix))
}
