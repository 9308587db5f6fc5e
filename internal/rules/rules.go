// Package rules derives crew occupancy, capacity violations and the save
// verdict from a mission draft. Every function is pure and never panics on
// missing references; unknown ids degrade to "unassigned".
package rules

import (
	"strings"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// Occupancy describes how full one vessel is.
type Occupancy struct {
	VesselID   string `json:"vesselId"`
	VesselName string `json:"vesselName"`
	Count      int    `json:"count"`
	Capacity   int    `json:"capacity"`
	Unlimited  bool   `json:"unlimited"`
	IsOver     bool   `json:"isOver"`
}

// CrewOf returns every non ground support assignment aboard vesselID.
func CrewOf(d core.MissionDraft, vesselID string) []core.CrewAssignment {
	var out []core.CrewAssignment
	for _, c := range d.Crew {
		if !c.IsGroundSupport && c.VesselID == vesselID {
			out = append(out, c)
		}
	}
	return out
}

// GroundSupport returns every ground support assignment.
func GroundSupport(d core.MissionDraft) []core.CrewAssignment {
	var out []core.CrewAssignment
	for _, c := range d.Crew {
		if c.IsGroundSupport {
			out = append(out, c)
		}
	}
	return out
}

// OccupancyOf counts the crew aboard vesselID against its capacity. An unset
// capacity is unlimited; an explicit zero admits nobody.
func OccupancyOf(d core.MissionDraft, vesselID string) Occupancy {
	occ := Occupancy{
		VesselID:  vesselID,
		Count:     len(CrewOf(d, vesselID)),
		Unlimited: true,
	}
	for _, v := range d.Vessels {
		if v.VesselID != vesselID {
			continue
		}
		occ.VesselName = v.Name
		if c, ok := v.Capacity(); ok {
			occ.Capacity = c
			occ.Unlimited = false
		}
		break
	}
	occ.IsOver = !occ.Unlimited && occ.Count > occ.Capacity
	return occ
}

// OverviewComplete reports whether name, type and scheduled time are all filled in.
func OverviewComplete(d core.MissionDraft) bool {
	return len(MissingFields(d)) == 0
}

// MissingFields lists the blank required overview fields in focus priority order.
// A value holding only whitespace counts as blank.
func MissingFields(d core.MissionDraft) []core.FieldID {
	var missing []core.FieldID
	for _, f := range core.RequiredFields {
		v, _ := d.Overview.Get(f)
		if strings.TrimSpace(v) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// FirstInvalidField returns the highest priority blank required field.
// ok is false when the overview is complete.
func FirstInvalidField(d core.MissionDraft) (field core.FieldID, ok bool) {
	missing := MissingFields(d)
	if len(missing) == 0 {
		return "", false
	}
	return missing[0], true
}

// OverCapacity lists every selected vessel carrying more crew than it can hold,
// in roster order.
func OverCapacity(d core.MissionDraft) []Occupancy {
	var out []Occupancy
	for _, v := range d.Vessels {
		if occ := OccupancyOf(d, v.VesselID); occ.IsOver {
			out = append(out, occ)
		}
	}
	return out
}

// VesselsValid reports whether no selected vessel is over capacity.
func VesselsValid(d core.MissionDraft) bool {
	return len(OverCapacity(d)) == 0
}

// CanSave is the single save gate: overview complete and no vessel over capacity.
func CanSave(d core.MissionDraft) bool {
	return OverviewComplete(d) && VesselsValid(d)
}

// SerializeParticipants maps every selected person, exactly once and in roster
// order, to the participant shape the persistence API expects.
func SerializeParticipants(d core.MissionDraft) []core.Participant {
	byPerson := make(map[string]core.CrewAssignment, len(d.Crew))
	for _, c := range d.Crew {
		byPerson[c.PersonID] = c
	}
	vessels := make(map[string]core.SelectedVessel, len(d.Vessels))
	for _, v := range d.Vessels {
		vessels[v.VesselID] = v
	}

	out := make([]core.Participant, 0, len(d.Persons))
	for _, p := range d.Persons {
		part := core.Participant{
			UserID: p.ID,
			Handle: p.DisplayName,
			Roles:  []string{},
		}
		c, assigned := byPerson[p.ID]
		switch {
		case !assigned:
		case c.IsGroundSupport:
			part.GroundSupport = true
			part.Roles = []string{c.Role}
		default:
			if v, ok := vessels[c.VesselID]; ok {
				part.VesselID = v.VesselID
				part.VesselName = v.Name
				part.VesselType = v.Type
				part.Roles = []string{c.Role}
			}
		}
		out = append(out, part)
	}
	return out
}
