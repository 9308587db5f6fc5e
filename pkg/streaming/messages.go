// Package streaming defines the notification messages the persistence service
// pushes to open composer views over WebSocket.
package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// Message type constants matching the notification protocol.
const (
	TypeMissionSaved   = "mission_saved"
	TypeMissionDeleted = "mission_deleted"
	TypePing           = "ping"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MissionSavedPayload carries the saved mission. Created is false for updates.
type MissionSavedPayload struct {
	Mission core.Mission `json:"mission"`
	Created bool         `json:"created"`
}

// MissionDeletedPayload names the deleted mission.
type MissionDeletedPayload struct {
	MissionID string `json:"missionId"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
