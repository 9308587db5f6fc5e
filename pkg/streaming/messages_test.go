package streaming

import (
	"encoding/json"
	"testing"

	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Envelope(t *testing.T) {
	data, err := Marshal(TypeMissionDeleted, MissionDeletedPayload{MissionID: "m-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"mission_deleted","payload":{"missionId":"m-1"}}`, string(data))

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	var p MissionDeletedPayload
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, "m-1", p.MissionID)
}

func TestMarshal_SavedCarriesMission(t *testing.T) {
	m := core.Mission{ID: "m-2"}
	m.Name = "Supply Run"

	data, err := Marshal(TypeMissionSaved, MissionSavedPayload{Mission: m, Created: true})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, TypeMissionSaved, env.Type)

	var p MissionSavedPayload
	require.NoError(t, env.Decode(&p))
	assert.True(t, p.Created)
	assert.Equal(t, "Supply Run", p.Mission.Name)
}

func TestMarshal_UnsupportedPayload(t *testing.T) {
	_, err := Marshal(TypePing, make(chan int))
	assert.ErrorContains(t, err, "marshal ping payload")
}

func TestDecode_TypeMismatch(t *testing.T) {
	env := Envelope{Type: TypeMissionDeleted, Payload: json.RawMessage(`[1,2]`)}
	var p MissionDeletedPayload
	assert.ErrorContains(t, env.Decode(&p), "unmarshal mission_deleted payload")
}
