package selection

import "github.com/aydocorp/opscomposer/pkg/core"

// DefaultGroundSupportRole labels hydrated ground support assignments that
// were persisted without a role.
const DefaultGroundSupportRole = "Ground Support"

// draftFromMission rebuilds the working set from a persisted mission.
// Persons come from participants, vessels from the saved roster plus any vessel
// a participant references, and crew from participants holding a role.
func draftFromMission(m core.Mission) core.MissionDraft {
	d := core.MissionDraft{
		ID:           m.ID,
		Overview:     m.MissionInput.Overview(),
		DiagramLinks: append([]string(nil), m.DiagramLinks...),
		Persons:      []core.Person{},
		Vessels:      []core.SelectedVessel{},
		Crew:         []core.CrewAssignment{},
		UpdatedAt:    m.UpdatedAt,
	}

	for _, v := range m.Vessels {
		if v.VesselID == "" || indexVessel(d.Vessels, v.VesselID) >= 0 {
			continue
		}
		sv := v
		sv.Vessel = v.Vessel.Clone()
		d.Vessels = append(d.Vessels, sv)
	}

	for _, p := range m.Participants {
		if p.UserID == "" || indexPerson(d.Persons, p.UserID) >= 0 {
			continue
		}
		d.Persons = append(d.Persons, core.Person{ID: p.UserID, DisplayName: p.Handle})

		if p.VesselID != "" && p.VesselID != core.GroundSupportVesselID && indexVessel(d.Vessels, p.VesselID) < 0 {
			d.Vessels = append(d.Vessels, core.SelectedVessel{Vessel: core.Vessel{
				VesselID: p.VesselID,
				Name:     p.VesselName,
				Type:     p.VesselType,
			}})
		}

		role := ""
		if len(p.Roles) > 0 {
			role = p.Roles[0]
		}
		switch {
		case p.GroundSupport || p.VesselID == core.GroundSupportVesselID:
			if role == "" {
				role = DefaultGroundSupportRole
			}
			d.Crew = append(d.Crew, core.CrewAssignment{
				PersonID:        p.UserID,
				PersonName:      p.Handle,
				Role:            role,
				IsGroundSupport: true,
			})
		case p.VesselID != "" && role != "":
			v := d.Vessels[indexVessel(d.Vessels, p.VesselID)].Vessel.Clone()
			d.Crew = append(d.Crew, core.CrewAssignment{
				PersonID:     p.UserID,
				PersonName:   p.Handle,
				VesselID:     v.VesselID,
				VesselName:   v.Name,
				VesselType:   v.Type,
				Manufacturer: v.Manufacturer,
				Image:        v.Image,
				CrewCapacity: v.CrewCapacity,
				Role:         role,
			})
		}
	}

	return d
}
