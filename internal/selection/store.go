// Package selection holds the mutable working set of one mission in progress:
// selected personnel, selected vessels and crew assignments. It performs no I/O.
package selection

import (
	"strings"
	"sync"
	"time"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// Listener is notified with a snapshot after every effective mutation.
type Listener func(core.MissionDraft)

// Store owns a MissionDraft and exposes atomic mutations over it.
type Store struct {
	mu    sync.RWMutex
	draft core.MissionDraft
	rev   uint64

	ids   *idalloc.Allocator
	clock func() time.Time

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextLID    int
}

// Option configures a Store.
type Option func(*Store)

// WithAllocator sets the allocator used for vessels without ids.
func WithAllocator(a *idalloc.Allocator) Option {
	return func(s *Store) {
		s.ids = a
	}
}

// WithClock overrides the clock used to stamp UpdatedAt.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New creates a Store with an empty draft for a new mission.
func New(opts ...Option) *Store {
	s := &Store{
		ids:       idalloc.New(),
		clock:     time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.draft = core.MissionDraft{
		Overview: core.Overview{Status: core.StatusPlanning},
		Persons:  []core.Person{},
		Vessels:  []core.SelectedVessel{},
		Crew:     []core.CrewAssignment{},
	}
	return s
}

// Hydrate creates a Store whose draft is rebuilt from a persisted mission.
func Hydrate(m core.Mission, opts ...Option) *Store {
	s := New(opts...)
	s.draft = draftFromMission(m)
	return s
}

// Reset replaces the draft with one rebuilt from m and notifies listeners.
func (s *Store) Reset(m core.Mission) {
	s.mu.Lock()
	s.draft = draftFromMission(m)
	s.rev++
	snap := s.draft.Clone()
	s.mu.Unlock()
	s.notify(snap)
}

// Commit records m as the persisted form of the draft taken at revision rev.
// When the draft is unchanged since then it is rebuilt from m. Otherwise only
// the mission id and timestamp are adopted and later edits are kept. Owned
// vessels of rostered people survive either way. It reports whether the draft
// was rebuilt.
func (s *Store) Commit(m core.Mission, rev uint64) bool {
	s.mu.Lock()
	owned := ownedVessels(s.draft.Persons)
	rebuilt := s.rev == rev
	if rebuilt {
		s.draft = draftFromMission(m)
	} else {
		s.draft.ID = m.ID
		s.draft.UpdatedAt = m.UpdatedAt
	}
	attachOwned(s.draft.Persons, owned)
	s.rev++
	snap := s.draft.Clone()
	s.mu.Unlock()
	s.notify(snap)
	return rebuilt
}

// AttachOwnedVessels fills in the own ships of rostered people that have none,
// keyed by person id. Hydrated people only carry an id and a name.
func (s *Store) AttachOwnedVessels(owned map[string][]core.Vessel) bool {
	return s.mutate(func(d *core.MissionDraft) bool {
		return attachOwned(d.Persons, owned)
	})
}

// Snapshot returns a deep copy of the current draft.
func (s *Store) Snapshot() core.MissionDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// SnapshotAt returns a deep copy of the draft with the revision it was taken at.
func (s *Store) SnapshotAt() (core.MissionDraft, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone(), s.rev
}

// Revision counts effective changes to the draft.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// OnChange registers fn and returns a function that removes it.
func (s *Store) OnChange(fn Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

// AddPerson appends p to the roster. It is a no-op when p.ID is already present.
func (s *Store) AddPerson(p core.Person) bool {
	if strings.TrimSpace(p.ID) == "" {
		return false
	}
	return s.mutate(func(d *core.MissionDraft) bool {
		if indexPerson(d.Persons, p.ID) >= 0 {
			return false
		}
		d.Persons = append(d.Persons, p)
		return true
	})
}

// RemovePerson removes the person and every crew assignment referencing them.
func (s *Store) RemovePerson(personID string) bool {
	return s.mutate(func(d *core.MissionDraft) bool {
		i := indexPerson(d.Persons, personID)
		if i < 0 {
			return false
		}
		d.Persons = append(d.Persons[:i], d.Persons[i+1:]...)
		d.Crew = dropCrew(d.Crew, func(c core.CrewAssignment) bool { return c.PersonID == personID })
		return true
	})
}

// AddVessel adds v to the roster, allocating an id when v has none.
// It returns the vessel id and whether the roster changed.
func (s *Store) AddVessel(v core.Vessel, owner *core.Person) (string, bool) {
	var id string
	changed := s.mutate(func(d *core.MissionDraft) bool {
		var added bool
		id, added = s.addVesselLocked(d, v, owner)
		return added
	})
	return id, changed
}

// AddVessels adds a batch of compendium vessels with a single change notification.
// It returns the ids of the vessels actually added.
func (s *Store) AddVessels(vs []core.Vessel) []string {
	var added []string
	s.mutate(func(d *core.MissionDraft) bool {
		for _, v := range vs {
			if id, ok := s.addVesselLocked(d, v, nil); ok {
				added = append(added, id)
			}
		}
		return len(added) > 0
	})
	return added
}

func (s *Store) addVesselLocked(d *core.MissionDraft, v core.Vessel, owner *core.Person) (string, bool) {
	v = v.Clone()
	if strings.TrimSpace(v.VesselID) == "" {
		v.VesselID = s.ids.Next(idalloc.VesselPrefix)
	}
	if indexVessel(d.Vessels, v.VesselID) >= 0 {
		return v.VesselID, false
	}
	sv := core.SelectedVessel{Vessel: v}
	if owner != nil {
		sv.OwnerID = owner.ID
		sv.OwnerName = owner.DisplayName
	}
	d.Vessels = append(d.Vessels, sv)
	return v.VesselID, true
}

// RemoveVessel removes the vessel and every crew assignment aboard it.
func (s *Store) RemoveVessel(vesselID string) bool {
	return s.mutate(func(d *core.MissionDraft) bool {
		i := indexVessel(d.Vessels, vesselID)
		if i < 0 {
			return false
		}
		d.Vessels = append(d.Vessels[:i], d.Vessels[i+1:]...)
		d.Crew = dropCrew(d.Crew, func(c core.CrewAssignment) bool {
			return !c.IsGroundSupport && c.VesselID == vesselID
		})
		return true
	})
}

// AssignCrew upserts the assignment for personID, replacing any prior one.
// An empty vesselID or role unassigns the person. core.GroundSupportVesselID
// assigns the person to ground support. Assignments naming a person or vessel
// outside the roster are rejected without error.
func (s *Store) AssignCrew(personID, vesselID, role string) bool {
	vesselID = strings.TrimSpace(vesselID)
	role = strings.TrimSpace(role)

	return s.mutate(func(d *core.MissionDraft) bool {
		pi := indexPerson(d.Persons, personID)
		if pi < 0 {
			return false
		}
		person := d.Persons[pi]

		if vesselID == "" || role == "" {
			before := len(d.Crew)
			d.Crew = dropCrew(d.Crew, func(c core.CrewAssignment) bool { return c.PersonID == personID })
			return len(d.Crew) != before
		}

		var next core.CrewAssignment
		if vesselID == core.GroundSupportVesselID {
			next = core.CrewAssignment{
				PersonID:        person.ID,
				PersonName:      person.DisplayName,
				Role:            role,
				IsGroundSupport: true,
			}
		} else {
			vi := indexVessel(d.Vessels, vesselID)
			if vi < 0 {
				return false
			}
			v := d.Vessels[vi].Vessel.Clone()
			next = core.CrewAssignment{
				PersonID:     person.ID,
				PersonName:   person.DisplayName,
				VesselID:     v.VesselID,
				VesselName:   v.Name,
				VesselType:   v.Type,
				Manufacturer: v.Manufacturer,
				Image:        v.Image,
				CrewCapacity: v.CrewCapacity,
				Role:         role,
			}
		}

		d.Crew = dropCrew(d.Crew, func(c core.CrewAssignment) bool { return c.PersonID == personID })
		d.Crew = append(d.Crew, next)
		return true
	})
}

// UpdateOverviewField sets one overview field and stamps UpdatedAt.
// It reports false for unknown fields.
func (s *Store) UpdateOverviewField(field core.FieldID, value string) bool {
	return s.mutate(func(d *core.MissionDraft) bool {
		if !d.Overview.Set(field, value) {
			return false
		}
		d.UpdatedAt = s.clock()
		return true
	})
}

// SetDiagramLinks replaces the diagram link list.
func (s *Store) SetDiagramLinks(links []string) {
	s.mutate(func(d *core.MissionDraft) bool {
		d.DiagramLinks = append([]string(nil), links...)
		d.UpdatedAt = s.clock()
		return true
	})
}

// mutate applies fn under the write lock and notifies listeners when fn reports a change.
func (s *Store) mutate(fn func(*core.MissionDraft) bool) bool {
	s.mu.Lock()
	changed := fn(&s.draft)
	var snap core.MissionDraft
	if changed {
		s.rev++
		snap = s.draft.Clone()
	}
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return changed
}

func (s *Store) notify(snap core.MissionDraft) {
	s.listenerMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextLID; i++ {
		if l, ok := s.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	s.listenerMu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}

func ownedVessels(ps []core.Person) map[string][]core.Vessel {
	owned := make(map[string][]core.Vessel)
	for _, p := range ps {
		if len(p.OwnedVessels) > 0 {
			owned[p.ID] = p.OwnedVessels
		}
	}
	return owned
}

func attachOwned(ps []core.Person, owned map[string][]core.Vessel) bool {
	changed := false
	for i := range ps {
		vs := owned[ps[i].ID]
		if len(ps[i].OwnedVessels) > 0 || len(vs) == 0 {
			continue
		}
		ps[i].OwnedVessels = make([]core.Vessel, len(vs))
		for j, v := range vs {
			ps[i].OwnedVessels[j] = v.Clone()
		}
		changed = true
	}
	return changed
}

func indexPerson(ps []core.Person, id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexVessel(vs []core.SelectedVessel, id string) int {
	for i, v := range vs {
		if v.VesselID == id {
			return i
		}
	}
	return -1
}

func dropCrew(crew []core.CrewAssignment, match func(core.CrewAssignment) bool) []core.CrewAssignment {
	out := crew[:0]
	for _, c := range crew {
		if !match(c) {
			out = append(out, c)
		}
	}
	return out
}
