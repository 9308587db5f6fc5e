// pkg/core/person.go
package core

// Person is a member from the user directory.
type Person struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	OwnedVessels []Vessel `json:"ownedVessels,omitempty"`
}

// DirectoryUser is the raw user directory record.
type DirectoryUser struct {
	ID         string    `json:"id" yaml:"id"`
	AydoHandle string    `json:"aydoHandle" yaml:"aydoHandle"`
	Ships      []RawShip `json:"ships,omitempty" yaml:"ships,omitempty"`
}

// Participant is the persisted shape of one selected person and their assignment.
// Roles is empty when the person is unassigned and has exactly one entry otherwise.
type Participant struct {
	UserID        string   `json:"userId"`
	Handle        string   `json:"handle"`
	VesselID      string   `json:"vesselId,omitempty"`
	VesselName    string   `json:"vesselName,omitempty"`
	VesselType    string   `json:"vesselType,omitempty"`
	GroundSupport bool     `json:"groundSupport,omitempty"`
	Roles         []string `json:"roles"`
}
