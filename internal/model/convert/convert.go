// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/aydocorp/opscomposer/internal/model"
	"github.com/aydocorp/opscomposer/pkg/core"
	"gorm.io/datatypes"
)

// stringsToJSON converts a []string to datatypes.JSON for DB storage.
func stringsToJSON(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

// jsonToStrings decodes a JSON string array. Bad or empty data yields an empty slice.
func jsonToStrings(data datatypes.JSON) []string {
	out := []string{}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// CoreToMission converts a core.Mission to a GORM model.Mission with its
// participant and vessel rows. Child rows carry the mission id and roster position.
func CoreToMission(m core.Mission) model.Mission {
	row := model.Mission{
		ID:                m.ID,
		Name:              m.Name,
		Type:              m.Type,
		Status:            m.Status,
		ScheduledDateTime: m.ScheduledDateTime,
		Location:          m.Location,
		BriefSummary:      m.BriefSummary,
		DiagramLinks:      stringsToJSON(m.DiagramLinks),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	for i, p := range m.Participants {
		row.Participants = append(row.Participants, CoreToParticipant(m.ID, i, p))
	}
	for i, v := range m.Vessels {
		row.Vessels = append(row.Vessels, CoreToMissionVessel(m.ID, i, v))
	}
	return row
}

// CoreToParticipant converts a core.Participant to a GORM model.Participant.
func CoreToParticipant(missionID string, position int, p core.Participant) model.Participant {
	return model.Participant{
		MissionID:     missionID,
		Position:      position,
		UserID:        p.UserID,
		Handle:        p.Handle,
		VesselID:      p.VesselID,
		VesselName:    p.VesselName,
		VesselType:    p.VesselType,
		GroundSupport: p.GroundSupport,
		Roles:         stringsToJSON(p.Roles),
	}
}

// CoreToMissionVessel converts a core.SelectedVessel to a GORM model.MissionVessel.
func CoreToMissionVessel(missionID string, position int, v core.SelectedVessel) model.MissionVessel {
	row := model.MissionVessel{
		MissionID:       missionID,
		Position:        position,
		VesselID:        v.VesselID,
		Name:            v.Name,
		Type:            v.Type,
		Manufacturer:    v.Manufacturer,
		CrewRequirement: v.CrewRequirement,
		Image:           v.Image,
		Size:            v.Size,
		RoleTags:        stringsToJSON(v.RoleTags),
		Length:          v.Length,
		Beam:            v.Beam,
		Height:          v.Height,
		OwnerID:         v.OwnerID,
		OwnerName:       v.OwnerName,
	}
	if v.CrewCapacity != nil {
		row.CrewCapacity = core.IntPtr(*v.CrewCapacity)
	}
	return row
}

// MissionToCore converts a GORM Mission, with preloaded children sorted by
// position, to a core.Mission.
func MissionToCore(row model.Mission) core.Mission {
	m := core.Mission{
		ID: row.ID,
		MissionInput: core.MissionInput{
			Name:              row.Name,
			Type:              row.Type,
			Status:            row.Status,
			ScheduledDateTime: row.ScheduledDateTime,
			Location:          row.Location,
			BriefSummary:      row.BriefSummary,
			DiagramLinks:      jsonToStrings(row.DiagramLinks),
			Participants:      make([]core.Participant, 0, len(row.Participants)),
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, p := range row.Participants {
		m.Participants = append(m.Participants, ParticipantToCore(p))
	}
	for _, v := range row.Vessels {
		m.Vessels = append(m.Vessels, MissionVesselToCore(v))
	}
	return m
}

// ParticipantToCore converts a GORM Participant to a core.Participant.
func ParticipantToCore(p model.Participant) core.Participant {
	return core.Participant{
		UserID:        p.UserID,
		Handle:        p.Handle,
		VesselID:      p.VesselID,
		VesselName:    p.VesselName,
		VesselType:    p.VesselType,
		GroundSupport: p.GroundSupport,
		Roles:         jsonToStrings(p.Roles),
	}
}

// MissionVesselToCore converts a GORM MissionVessel to a core.SelectedVessel.
func MissionVesselToCore(v model.MissionVessel) core.SelectedVessel {
	out := core.SelectedVessel{
		Vessel: core.Vessel{
			VesselID:        v.VesselID,
			Name:            v.Name,
			Type:            v.Type,
			Manufacturer:    v.Manufacturer,
			CrewRequirement: v.CrewRequirement,
			Image:           v.Image,
			Size:            v.Size,
			Length:          v.Length,
			Beam:            v.Beam,
			Height:          v.Height,
		},
		OwnerID:   v.OwnerID,
		OwnerName: v.OwnerName,
	}
	if v.CrewCapacity != nil {
		out.CrewCapacity = core.IntPtr(*v.CrewCapacity)
	}
	if tags := jsonToStrings(v.RoleTags); len(tags) > 0 {
		out.RoleTags = tags
	}
	return out
}
