package selection

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(id string) core.Person {
	return core.Person{ID: id, DisplayName: "Pilot " + id}
}

func vessel(id string, capacity int) core.Vessel {
	return core.Vessel{
		VesselID:     id,
		Name:         "Ship " + id,
		Type:         "Hull C",
		Manufacturer: "MISC",
		CrewCapacity: core.IntPtr(capacity),
	}
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%d", n)
	}
}

func TestNew_EmptyDraft(t *testing.T) {
	s := New()
	d := s.Snapshot()

	assert.Empty(t, d.ID)
	assert.False(t, d.Editing())
	assert.Equal(t, core.StatusPlanning, d.Overview.Status)
	assert.Empty(t, d.Persons)
	assert.Empty(t, d.Vessels)
	assert.Empty(t, d.Crew)
}

func TestAddPerson_Duplicate(t *testing.T) {
	s := New()

	assert.True(t, s.AddPerson(person("p1")))
	assert.False(t, s.AddPerson(person("p1")))
	assert.False(t, s.AddPerson(core.Person{ID: " "}))

	assert.Len(t, s.Snapshot().Persons, 1)
}

func TestRemovePerson_CascadesCrew(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddPerson(person("p2"))
	s.AddVessel(vessel("v1", 4), nil)
	require.True(t, s.AssignCrew("p1", "v1", "Pilot"))
	require.True(t, s.AssignCrew("p2", core.GroundSupportVesselID, "Dispatcher"))
	require.True(t, s.AssignCrew("p2", "v1", "Gunner"))

	assert.True(t, s.RemovePerson("p1"))
	assert.False(t, s.RemovePerson("p1"))

	d := s.Snapshot()
	require.Len(t, d.Crew, 1)
	assert.Equal(t, "p2", d.Crew[0].PersonID)
}

func TestAddPersonRemovePerson_RandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := New()
	s.AddVessel(vessel("v1", 100), nil)

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("p%d", r.Intn(12))
		switch r.Intn(3) {
		case 0:
			s.AddPerson(person(id))
		case 1:
			s.RemovePerson(id)
		case 2:
			s.AssignCrew(id, "v1", "Crew")
		}

		d := s.Snapshot()
		seen := map[string]bool{}
		for _, p := range d.Persons {
			require.False(t, seen[p.ID], "duplicate person %s", p.ID)
			seen[p.ID] = true
		}
		for _, c := range d.Crew {
			require.True(t, seen[c.PersonID], "orphan assignment for %s", c.PersonID)
		}
	}
}

func TestAddVessel_AllocatesMissingID(t *testing.T) {
	s := New(WithAllocator(idalloc.NewWithSource(counter())))

	id, added := s.AddVessel(core.Vessel{Name: "Cutlass Black"}, nil)
	require.True(t, added)
	assert.Equal(t, "vessel-1", id)

	id2, added := s.AddVessel(core.Vessel{Name: "Cutlass Black"}, nil)
	require.True(t, added)
	assert.NotEqual(t, id, id2)
	assert.Len(t, s.Snapshot().Vessels, 2)
}

func TestAddVessel_DuplicateIsNoop(t *testing.T) {
	s := New()
	owner := person("p1")

	id, added := s.AddVessel(vessel("v1", 2), &owner)
	assert.True(t, added)
	assert.Equal(t, "v1", id)

	_, added = s.AddVessel(vessel("v1", 9), nil)
	assert.False(t, added)

	d := s.Snapshot()
	require.Len(t, d.Vessels, 1)
	assert.Equal(t, "p1", d.Vessels[0].OwnerID)
	assert.Equal(t, "Pilot p1", d.Vessels[0].OwnerName)
	c, ok := d.Vessels[0].Capacity()
	assert.True(t, ok)
	assert.Equal(t, 2, c)
}

func TestAddVessels_BatchNotifiesOnce(t *testing.T) {
	s := New()
	s.AddVessel(vessel("v1", 2), nil)

	calls := 0
	s.OnChange(func(core.MissionDraft) { calls++ })

	added := s.AddVessels([]core.Vessel{vessel("v1", 2), vessel("v2", 2), vessel("v3", 2)})

	assert.Equal(t, []string{"v2", "v3"}, added)
	assert.Equal(t, 1, calls)
	assert.Len(t, s.Snapshot().Vessels, 3)
}

func TestRemoveVessel_CascadesCrewOnly(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddPerson(person("p2"))
	s.AddPerson(person("p3"))
	s.AddVessel(vessel("v1", 4), nil)
	s.AddVessel(vessel("v2", 4), nil)
	s.AssignCrew("p1", "v1", "Pilot")
	s.AssignCrew("p2", "v2", "Pilot")
	s.AssignCrew("p3", core.GroundSupportVesselID, "Medic")

	assert.True(t, s.RemoveVessel("v1"))
	assert.False(t, s.RemoveVessel("v1"))

	d := s.Snapshot()
	require.Len(t, d.Crew, 2)
	for _, c := range d.Crew {
		assert.NotEqual(t, "v1", c.VesselID)
	}
	assert.Len(t, d.Persons, 3)
}

func TestAddVesselRemoveVessel_RandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	s := New()
	for i := 0; i < 6; i++ {
		s.AddPerson(person(fmt.Sprintf("p%d", i)))
	}

	for i := 0; i < 1000; i++ {
		vid := fmt.Sprintf("v%d", r.Intn(5))
		switch r.Intn(3) {
		case 0:
			s.AddVessel(vessel(vid, 3), nil)
		case 1:
			s.RemoveVessel(vid)
		case 2:
			s.AssignCrew(fmt.Sprintf("p%d", r.Intn(6)), vid, "Crew")
		}

		d := s.Snapshot()
		seen := map[string]bool{}
		for _, v := range d.Vessels {
			require.False(t, seen[v.VesselID], "duplicate vessel %s", v.VesselID)
			seen[v.VesselID] = true
		}
		for _, c := range d.Crew {
			require.True(t, seen[c.VesselID], "assignment to removed vessel %s", c.VesselID)
		}
	}
}

func TestAssignCrew_LatestWins(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddVessel(vessel("v1", 2), nil)
	s.AddVessel(vessel("v2", 2), nil)

	require.True(t, s.AssignCrew("p1", "v1", "Pilot"))
	require.True(t, s.AssignCrew("p1", "v2", "Engineer"))

	d := s.Snapshot()
	require.Len(t, d.Crew, 1)
	assert.Equal(t, "v2", d.Crew[0].VesselID)
	assert.Equal(t, "Engineer", d.Crew[0].Role)
	assert.Equal(t, "Ship v2", d.Crew[0].VesselName)
	assert.Equal(t, "MISC", d.Crew[0].Manufacturer)
}

func TestAssignCrew_EmptyVesselOrRoleUnassigns(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddVessel(vessel("v1", 2), nil)

	s.AssignCrew("p1", "v1", "Pilot")
	assert.True(t, s.AssignCrew("p1", "", "Pilot"))
	assert.Empty(t, s.Snapshot().Crew)

	s.AssignCrew("p1", "v1", "Pilot")
	assert.True(t, s.AssignCrew("p1", "v1", ""))
	assert.Empty(t, s.Snapshot().Crew)

	assert.False(t, s.AssignCrew("p1", "", ""), "unassigning an unassigned person changes nothing")
}

func TestAssignCrew_GroundSupport(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddVessel(vessel("v1", 2), nil)
	s.AssignCrew("p1", "v1", "Pilot")

	require.True(t, s.AssignCrew("p1", core.GroundSupportVesselID, "Dispatcher"))

	d := s.Snapshot()
	require.Len(t, d.Crew, 1)
	c := d.Crew[0]
	assert.True(t, c.IsGroundSupport)
	assert.Empty(t, c.VesselID)
	assert.Empty(t, c.VesselName)
	assert.Nil(t, c.CrewCapacity)
	assert.Equal(t, "Dispatcher", c.Role)
}

func TestAssignCrew_RejectsUnknownReferences(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddVessel(vessel("v1", 2), nil)

	calls := 0
	s.OnChange(func(core.MissionDraft) { calls++ })

	assert.False(t, s.AssignCrew("p1", "missing", "Pilot"))
	assert.False(t, s.AssignCrew("ghost", "v1", "Pilot"))
	assert.Empty(t, s.Snapshot().Crew)
	assert.Zero(t, calls)
}

func TestRemoveAndReaddVessel_StartsEmpty(t *testing.T) {
	s := New()
	s.AddPerson(person("p1"))
	s.AddPerson(person("p2"))
	s.AddVessel(vessel("v1", 2), nil)
	s.AssignCrew("p1", "v1", "Pilot")
	s.AssignCrew("p2", "v1", "Gunner")

	s.RemoveVessel("v1")
	assert.Empty(t, s.Snapshot().Crew)

	s.AddVessel(vessel("v1", 2), nil)
	d := s.Snapshot()
	assert.Len(t, d.Vessels, 1)
	assert.Empty(t, d.Crew)
}

func TestUpdateOverviewField_StampsUpdatedAt(t *testing.T) {
	now := time.Date(2953, 4, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	assert.True(t, s.UpdateOverviewField(core.FieldName, "Supply Run"))
	assert.False(t, s.UpdateOverviewField(core.FieldID("mission-color"), "red"))

	d := s.Snapshot()
	assert.Equal(t, "Supply Run", d.Overview.Name)
	assert.Equal(t, now, d.UpdatedAt)
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := New()
	s.AddVessel(vessel("v1", 2), nil)

	d := s.Snapshot()
	*d.Vessels[0].CrewCapacity = 99
	d.Vessels[0].Name = "changed"

	again := s.Snapshot()
	c, _ := again.Vessels[0].Capacity()
	assert.Equal(t, 2, c)
	assert.Equal(t, "Ship v1", again.Vessels[0].Name)
}

func TestOnChange_Unsubscribe(t *testing.T) {
	s := New()
	calls := 0
	off := s.OnChange(func(core.MissionDraft) { calls++ })

	s.AddPerson(person("p1"))
	off()
	s.AddPerson(person("p2"))

	assert.Equal(t, 1, calls)
}

func TestHydrate_RebuildsDraft(t *testing.T) {
	m := core.Mission{
		ID: "m-1",
		MissionInput: core.MissionInput{
			Name:              "Supply Run",
			Type:              "Cargo Haul",
			Status:            core.StatusScheduled,
			ScheduledDateTime: "2953-04-01T20:00",
			DiagramLinks:      []string{"https://example.invalid/d1"},
			Vessels: []core.SelectedVessel{
				{Vessel: vessel("v1", 2), OwnerID: "p1", OwnerName: "Pilot p1"},
			},
			Participants: []core.Participant{
				{UserID: "p1", Handle: "Pilot p1", VesselID: "v1", Roles: []string{"Pilot"}},
				{UserID: "p2", Handle: "Pilot p2", VesselID: "v9", VesselName: "Ship v9", Roles: []string{"Gunner"}},
				{UserID: "p3", Handle: "Pilot p3", GroundSupport: true},
				{UserID: "p4", Handle: "Pilot p4", Roles: []string{}},
				{UserID: "p1", Handle: "dupe"},
			},
		},
	}

	d := Hydrate(m).Snapshot()

	assert.Equal(t, "m-1", d.ID)
	assert.True(t, d.Editing())
	assert.Equal(t, "Supply Run", d.Overview.Name)
	assert.Len(t, d.Persons, 4)
	require.Len(t, d.Vessels, 2)
	assert.Equal(t, "v9", d.Vessels[1].VesselID)
	require.Len(t, d.Crew, 3)
	assert.Equal(t, "MISC", d.Crew[0].Manufacturer)
	assert.True(t, d.Crew[2].IsGroundSupport)
	assert.Equal(t, DefaultGroundSupportRole, d.Crew[2].Role)
}

func savedCopy(d core.MissionDraft, id string) core.Mission {
	in := core.MissionInput{
		Name:              d.Overview.Name,
		Type:              d.Overview.Type,
		Status:            d.Overview.Status,
		ScheduledDateTime: d.Overview.ScheduledDateTime,
		Location:          d.Overview.Location,
		Vessels:           d.Vessels,
	}
	for _, p := range d.Persons {
		in.Participants = append(in.Participants, core.Participant{UserID: p.ID, Handle: p.DisplayName, Roles: []string{}})
	}
	return core.Mission{ID: id, MissionInput: in, UpdatedAt: time.Date(2953, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCommit_UnchangedDraftIsRebuilt(t *testing.T) {
	s := New()
	s.UpdateOverviewField(core.FieldName, "Supply Run")
	s.AddPerson(core.Person{ID: "p1", DisplayName: "Pilot p1", OwnedVessels: []core.Vessel{vessel("own-1", 2)}})
	d, rev := s.SnapshotAt()

	saved := savedCopy(d, "m-1")
	saved.Name = "Supply Run (canonical)"
	assert.True(t, s.Commit(saved, rev))

	got := s.Snapshot()
	assert.Equal(t, "m-1", got.ID)
	assert.Equal(t, "Supply Run (canonical)", got.Overview.Name)
	require.Len(t, got.Persons, 1)
	require.Len(t, got.Persons[0].OwnedVessels, 1)
	assert.Equal(t, "own-1", got.Persons[0].OwnedVessels[0].VesselID)
	assert.Greater(t, s.Revision(), rev)
}

func TestCommit_KeepsEditsMadeAfterSnapshot(t *testing.T) {
	s := New()
	s.UpdateOverviewField(core.FieldName, "Supply Run")
	d, rev := s.SnapshotAt()

	s.UpdateOverviewField(core.FieldLocation, "Port Olisar")
	s.AddPerson(person("p2"))

	var notified []core.MissionDraft
	s.OnChange(func(d core.MissionDraft) { notified = append(notified, d) })
	assert.False(t, s.Commit(savedCopy(d, "m-1"), rev))

	got := s.Snapshot()
	assert.Equal(t, "m-1", got.ID)
	assert.True(t, got.Editing())
	assert.Equal(t, "Port Olisar", got.Overview.Location)
	assert.Len(t, got.Persons, 1)
	require.Len(t, notified, 1)
	assert.Equal(t, "m-1", notified[0].ID)
}

func TestRevision_CountsEffectiveChanges(t *testing.T) {
	s := New()
	start := s.Revision()

	s.AddPerson(person("p1"))
	s.AddPerson(person("p1"))
	s.RemovePerson("nobody")

	assert.Equal(t, start+1, s.Revision())
}

func TestAttachOwnedVessels(t *testing.T) {
	s := Hydrate(core.Mission{ID: "m-1", MissionInput: core.MissionInput{
		Participants: []core.Participant{{UserID: "p1", Handle: "Pilot p1"}, {UserID: "p2", Handle: "Pilot p2"}},
	}})
	owned := map[string][]core.Vessel{"p1": {vessel("own-1", 2)}, "p9": {vessel("own-9", 1)}}

	assert.True(t, s.AttachOwnedVessels(owned))
	assert.False(t, s.AttachOwnedVessels(owned))

	ps := s.Snapshot().Persons
	require.Len(t, ps[0].OwnedVessels, 1)
	assert.Empty(t, ps[1].OwnedVessels)

	*owned["p1"][0].CrewCapacity = 9
	assert.Equal(t, 2, *s.Snapshot().Persons[0].OwnedVessels[0].CrewCapacity)
}
