// pkg/core/mission.go
package core

import (
	"errors"
	"time"
)

// ErrMissionNotFound is returned when a mission id is unknown to storage.
var ErrMissionNotFound = errors.New("mission not found")

// FieldID names one overview input. The values double as focus targets.
type FieldID string

const (
	FieldName              FieldID = "mission-name"
	FieldType              FieldID = "mission-type"
	FieldStatus            FieldID = "mission-status"
	FieldScheduledDateTime FieldID = "mission-datetime"
	FieldLocation          FieldID = "mission-location"
	FieldBriefSummary      FieldID = "mission-summary"
)

// RequiredFields lists the overview fields a mission cannot be saved without,
// in focus priority order.
var RequiredFields = []FieldID{FieldName, FieldType, FieldScheduledDateTime}

// Mission status values.
const (
	StatusPlanning  = "Planning"
	StatusScheduled = "Scheduled"
	StatusActive    = "Active"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

// MissionStatuses lists the accepted status values in lifecycle order.
var MissionStatuses = []string{StatusPlanning, StatusScheduled, StatusActive, StatusComplete, StatusCancelled}

// Overview holds the scalar mission fields edited in the Overview stage.
type Overview struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	ScheduledDateTime string `json:"scheduledDateTime"`
	Location          string `json:"location"`
	BriefSummary      string `json:"briefSummary"`
}

// Get returns the value of a single overview field.
func (o Overview) Get(field FieldID) (string, bool) {
	switch field {
	case FieldName:
		return o.Name, true
	case FieldType:
		return o.Type, true
	case FieldStatus:
		return o.Status, true
	case FieldScheduledDateTime:
		return o.ScheduledDateTime, true
	case FieldLocation:
		return o.Location, true
	case FieldBriefSummary:
		return o.BriefSummary, true
	}
	return "", false
}

// Set assigns a single overview field. It reports false for unknown fields.
func (o *Overview) Set(field FieldID, value string) bool {
	switch field {
	case FieldName:
		o.Name = value
	case FieldType:
		o.Type = value
	case FieldStatus:
		o.Status = value
	case FieldScheduledDateTime:
		o.ScheduledDateTime = value
	case FieldLocation:
		o.Location = value
	case FieldBriefSummary:
		o.BriefSummary = value
	default:
		return false
	}
	return true
}

// MissionDraft is the working set of one mission in progress.
// ID is empty until the mission has been persisted.
type MissionDraft struct {
	ID           string           `json:"id,omitempty"`
	Overview     Overview         `json:"overview"`
	DiagramLinks []string         `json:"diagramLinks,omitempty"`
	Persons      []Person         `json:"persons"`
	Vessels      []SelectedVessel `json:"vessels"`
	Crew         []CrewAssignment `json:"crew"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy of the draft.
func (d MissionDraft) Clone() MissionDraft {
	out := d
	out.DiagramLinks = append([]string(nil), d.DiagramLinks...)
	out.Persons = make([]Person, len(d.Persons))
	for i, p := range d.Persons {
		out.Persons[i] = p
		if p.OwnedVessels != nil {
			owned := make([]Vessel, len(p.OwnedVessels))
			for j, v := range p.OwnedVessels {
				owned[j] = v.Clone()
			}
			out.Persons[i].OwnedVessels = owned
		}
	}
	out.Vessels = make([]SelectedVessel, len(d.Vessels))
	for i, v := range d.Vessels {
		out.Vessels[i] = v
		out.Vessels[i].Vessel = v.Vessel.Clone()
	}
	out.Crew = make([]CrewAssignment, len(d.Crew))
	for i, c := range d.Crew {
		out.Crew[i] = c
		if c.CrewCapacity != nil {
			n := *c.CrewCapacity
			out.Crew[i].CrewCapacity = &n
		}
	}
	return out
}

// Editing reports whether the draft belongs to an already persisted mission.
func (d MissionDraft) Editing() bool {
	return d.ID != ""
}

// MissionInput is the payload sent to the persistence API on save.
type MissionInput struct {
	Name              string           `json:"name"`
	Type              string           `json:"type"`
	Status            string           `json:"status"`
	ScheduledDateTime string           `json:"scheduledDateTime"`
	Location          string           `json:"location"`
	BriefSummary      string           `json:"briefSummary"`
	DiagramLinks      []string         `json:"diagramLinks"`
	Participants      []Participant    `json:"participants"`
	Vessels           []SelectedVessel `json:"vessels,omitempty"`
}

// Overview returns the overview fields carried by the input.
func (in MissionInput) Overview() Overview {
	return Overview{
		Name:              in.Name,
		Type:              in.Type,
		Status:            in.Status,
		ScheduledDateTime: in.ScheduledDateTime,
		Location:          in.Location,
		BriefSummary:      in.BriefSummary,
	}
}

// Mission is the canonical saved mission returned by the persistence API.
type Mission struct {
	ID string `json:"id"`
	MissionInput
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the input.
func (in MissionInput) Clone() MissionInput {
	out := in
	if in.DiagramLinks != nil {
		out.DiagramLinks = append([]string(nil), in.DiagramLinks...)
	}
	if in.Participants != nil {
		out.Participants = make([]Participant, len(in.Participants))
		for i, p := range in.Participants {
			out.Participants[i] = p
			out.Participants[i].Roles = append([]string{}, p.Roles...)
		}
	}
	if in.Vessels != nil {
		out.Vessels = make([]SelectedVessel, len(in.Vessels))
		for i, v := range in.Vessels {
			out.Vessels[i] = v
			out.Vessels[i].Vessel = v.Vessel.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the mission.
func (m Mission) Clone() Mission {
	out := m
	out.MissionInput = m.MissionInput.Clone()
	return out
}
