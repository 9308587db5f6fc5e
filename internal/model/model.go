package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Mission{},
	&Participant{},
	&MissionVessel{},
}

// Mission is one saved mission and its overview fields.
// DiagramLinks holds a JSON array of strings. Timestamps are set by the storage backend.
type Mission struct {
	ID                string          `json:"id" gorm:"primaryKey;size:64"`
	Name              string          `json:"name" gorm:"size:200;index:idx_mission_name"`
	Type              string          `json:"type" gorm:"size:100"`
	Status            string          `json:"status" gorm:"size:32;index:idx_mission_status"`
	ScheduledDateTime string          `json:"scheduledDateTime" gorm:"size:64"`
	Location          string          `json:"location" gorm:"size:200"`
	BriefSummary      string          `json:"briefSummary"`
	DiagramLinks      datatypes.JSON  `json:"diagramLinks"`
	Participants      []Participant   `json:"participants" gorm:"foreignKey:MissionID"`
	Vessels           []MissionVessel `json:"vessels" gorm:"foreignKey:MissionID"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time       `json:"updatedAt" gorm:"autoUpdateTime:false;index:idx_mission_updated_at"`
}

func (*Mission) TableName() string {
	return "missions"
}

// Participant is one person on a mission. Position keeps roster order.
// Roles holds a JSON array with zero or one role.
type Participant struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	MissionID     string         `json:"missionId" gorm:"size:64;index:idx_participant_mission_id"`
	Position      int            `json:"position"`
	UserID        string         `json:"userId" gorm:"size:64"`
	Handle        string         `json:"handle" gorm:"size:128"`
	VesselID      string         `json:"vesselId" gorm:"size:128"`
	VesselName    string         `json:"vesselName" gorm:"size:200"`
	VesselType    string         `json:"vesselType" gorm:"size:200"`
	GroundSupport bool           `json:"groundSupport"`
	Roles         datatypes.JSON `json:"roles"`
}

func (*Participant) TableName() string {
	return "participants"
}

// MissionVessel is one vessel on a mission roster, with the reference data it
// was added with so capacities survive a reload.
type MissionVessel struct {
	ID              uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	MissionID       string         `json:"missionId" gorm:"size:64;index:idx_mission_vessel_mission_id"`
	Position        int            `json:"position"`
	VesselID        string         `json:"vesselId" gorm:"size:128"`
	Name            string         `json:"name" gorm:"size:200"`
	Type            string         `json:"type" gorm:"size:200"`
	Manufacturer    string         `json:"manufacturer" gorm:"size:200"`
	CrewCapacity    *int           `json:"crewCapacity" gorm:"default:NULL"`
	CrewRequirement int            `json:"crewRequirement"`
	Image           string         `json:"image"`
	Size            string         `json:"size" gorm:"size:32"`
	RoleTags        datatypes.JSON `json:"roleTags"`
	Length          float64        `json:"length"`
	Beam            float64        `json:"beam"`
	Height          float64        `json:"height"`
	OwnerID         string         `json:"ownerId" gorm:"size:64"`
	OwnerName       string         `json:"ownerName" gorm:"size:128"`
}

func (*MissionVessel) TableName() string {
	return "mission_vessels"
}
