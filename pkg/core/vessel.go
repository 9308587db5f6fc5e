// pkg/core/vessel.go
package core

// GroundSupportVesselID is the sentinel vessel id that marks a crew assignment
// as ground support rather than a seat aboard a vessel.
const GroundSupportVesselID = "ground-support"

// Vessel is a ship-type reference entity. VesselID is the stable key within a mission.
type Vessel struct {
	VesselID        string   `json:"vesselId"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Manufacturer    string   `json:"manufacturer"`
	CrewCapacity    *int     `json:"crewCapacity,omitempty"` // nil means unlimited
	CrewRequirement int      `json:"crewRequirement,omitempty"`
	Image           string   `json:"image,omitempty"`
	Size            string   `json:"size,omitempty"`
	RoleTags        []string `json:"roleTags,omitempty"`
	Length          float64  `json:"length,omitempty"`
	Beam            float64  `json:"beam,omitempty"`
	Height          float64  `json:"height,omitempty"`
}

// Capacity returns the crew capacity and whether one is set at all.
func (v Vessel) Capacity() (int, bool) {
	if v.CrewCapacity == nil {
		return 0, false
	}
	return *v.CrewCapacity, true
}

// Clone returns a copy that shares no slices or pointers with v.
func (v Vessel) Clone() Vessel {
	out := v
	if v.CrewCapacity != nil {
		c := *v.CrewCapacity
		out.CrewCapacity = &c
	}
	if v.RoleTags != nil {
		out.RoleTags = append([]string(nil), v.RoleTags...)
	}
	return out
}

// SelectedVessel is a vessel added to the mission roster, tagged with the
// person who contributed it (empty when it came from the compendium).
type SelectedVessel struct {
	Vessel
	OwnerID   string `json:"ownerId,omitempty"`
	OwnerName string `json:"ownerName,omitempty"`
}

// CrewAssignment binds one person to one vessel, or to ground support.
type CrewAssignment struct {
	PersonID        string `json:"personId"`
	PersonName      string `json:"personName"`
	VesselID        string `json:"vesselId,omitempty"`
	VesselName      string `json:"vesselName,omitempty"`
	VesselType      string `json:"vesselType,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	Image           string `json:"image,omitempty"`
	CrewCapacity    *int   `json:"crewCapacity,omitempty"`
	Role            string `json:"role"`
	IsGroundSupport bool   `json:"isGroundSupport"`
}

// RawShip is a ship as listed in the user directory, before normalization.
type RawShip struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Crew         int    `json:"crew,omitempty" yaml:"crew,omitempty"`
	Size         string `json:"size,omitempty" yaml:"size,omitempty"`
	Role         string `json:"role,omitempty" yaml:"role,omitempty"`
	Image        string `json:"image,omitempty" yaml:"image,omitempty"`
}

// IntPtr returns a pointer to n. Handy for capacities in literals.
func IntPtr(n int) *int {
	return &n
}
