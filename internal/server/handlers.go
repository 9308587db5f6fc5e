package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/aydocorp/opscomposer/internal/api"
	"github.com/aydocorp/opscomposer/internal/refdata"
	"github.com/aydocorp/opscomposer/internal/rules"
	"github.com/aydocorp/opscomposer/internal/storage"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/aydocorp/opscomposer/pkg/streaming"
)

const maxBodyBytes = 1 << 20

// FieldParticipants is reported when the participant list repeats a user.
const FieldParticipants = "participants"

// Validate returns the invalid fields of an incoming mission, empty when it
// can be stored. Capacities are not known here so only the overview and the
// participant list are checked.
func Validate(in core.MissionInput) []string {
	var fields []string
	for _, f := range rules.MissingFields(core.MissionDraft{Overview: in.Overview()}) {
		fields = append(fields, string(f))
	}
	if in.Status != "" && !slices.Contains(core.MissionStatuses, in.Status) {
		fields = append(fields, string(core.FieldStatus))
	}

	seen := make(map[string]struct{}, len(in.Participants))
	for _, p := range in.Participants {
		if _, dup := seen[p.UserID]; dup || p.UserID == "" {
			fields = append(fields, FieldParticipants)
			break
		}
		seen[p.UserID] = struct{}{}
	}
	return fields
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.backend.List(r.Context())
	if err != nil {
		s.fail(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	m, err := s.backend.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	m, err := s.backend.Create(r.Context(), in)
	if err != nil {
		s.fail(w, "create", err)
		return
	}
	s.logger.Info("Mission created", "missionId", m.ID, "missionName", m.Name)
	s.saved(r, m, true)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMission(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	m, err := s.backend.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, "update", err)
		return
	}
	s.logger.Info("Mission updated", "missionId", m.ID, "missionName", m.Name)
	s.saved(r, m, false)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.backend.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete", err)
		return
	}
	s.logger.Info("Mission deleted", "missionId", id)

	msg, err := streaming.Marshal(streaming.TypeMissionDeleted, streaming.MissionDeletedPayload{MissionID: id})
	if err == nil {
		s.hub.Broadcast(msg)
	}
	for _, rec := range s.recorders {
		rec.MissionDeleted(r.Context(), id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.directory.Users(r.Context())
	if err != nil {
		s.logger.Error("Failed to load user directory", "error", err)
		writeJSON(w, http.StatusBadGateway, api.ErrorBody{Error: "user directory unavailable"})
		return
	}
	if users == nil {
		users = []core.DirectoryUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.Entries(r.Context())
	if err != nil {
		s.logger.Error("Failed to load compendium", "error", err)
		writeJSON(w, http.StatusBadGateway, api.ErrorBody{Error: "compendium unavailable"})
		return
	}
	if entries == nil {
		entries = []refdata.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (core.MissionInput, bool) {
	var in core.MissionInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "invalid mission payload: " + err.Error()})
		return in, false
	}
	if fields := Validate(in); len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, api.ErrorBody{Error: "mission is incomplete", Fields: fields})
		return in, false
	}
	if in.Status == "" {
		in.Status = core.StatusPlanning
	}
	if in.Participants == nil {
		in.Participants = []core.Participant{}
	}
	return in, true
}

func (s *Server) saved(r *http.Request, m core.Mission, created bool) {
	msg, err := streaming.Marshal(streaming.TypeMissionSaved, streaming.MissionSavedPayload{Mission: m, Created: created})
	if err != nil {
		s.logger.Warn("Failed to encode save notification", "missionId", m.ID, "error", err)
	} else {
		s.hub.Broadcast(msg)
	}
	for _, rec := range s.recorders {
		rec.MissionSaved(r.Context(), m, created)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, api.ErrorBody{Error: err.Error()})
		return
	}
	s.logger.Error("Storage operation failed", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, api.ErrorBody{Error: "storage failure"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
