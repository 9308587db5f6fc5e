package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aydocorp/opscomposer/internal/api"
	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/refdata"
	"github.com/aydocorp/opscomposer/internal/storage/memory"
	"github.com/aydocorp/opscomposer/internal/storage/storagetest"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/aydocorp/opscomposer/pkg/streaming"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activity struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (a *activity) MissionSaved(_ context.Context, m core.Mission, _ bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, m.ID)
}

func (a *activity) MissionDeleted(_ context.Context, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, id)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	backend := memory.New(memory.Config{})
	require.NoError(t, backend.Init())

	dir := refdata.StaticDirectory{{ID: "u1", AydoHandle: "Hauler", Ships: []core.RawShip{{Name: "Hull A"}}}}
	cat := refdata.StaticCatalog{{Name: "Hull A", Manufacturer: "MISC", MaxCrew: core.IntPtr(2)}}

	s, err := New(backend, dir, cat, config.ServerConfig{}, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestMissionLifecycle(t *testing.T) {
	rec := &activity{}
	_, ts := newTestServer(t, WithRecorder(rec))
	client := api.New(ts.URL)
	ctx := context.Background()

	created, err := client.Create(ctx, storagetest.SampleInput())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Supply Run", created.Name)
	assert.Len(t, created.Participants, 3)

	in := storagetest.SampleInput()
	in.Status = core.StatusScheduled
	updated, err := client.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, core.StatusScheduled, updated.Status)

	got, err := client.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Status, got.Status)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, client.Delete(ctx, created.ID))
	_, err = client.Get(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)

	assert.Equal(t, []string{created.ID, created.ID}, rec.saved)
	assert.Equal(t, []string{created.ID}, rec.deleted)
}

func TestUnknownMission(t *testing.T) {
	_, ts := newTestServer(t)
	client := api.New(ts.URL)
	ctx := context.Background()

	_, err := client.Update(ctx, "missing", storagetest.SampleInput())
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.ErrorIs(t, client.Delete(ctx, "missing"), api.ErrNotFound)
}

func TestCreate_Incomplete(t *testing.T) {
	_, ts := newTestServer(t)
	client := api.New(ts.URL)

	in := storagetest.SampleInput()
	in.Name = ""
	in.ScheduledDateTime = ""
	_, err := client.Create(context.Background(), in)

	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.Equal(t, []string{"mission-name", "mission-datetime"}, se.Body.Fields)
}

func TestCreate_MalformedBody(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/missions", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreate_DefaultsStatus(t *testing.T) {
	_, ts := newTestServer(t)
	in := storagetest.SampleInput()
	in.Status = ""
	in.Participants = nil

	m, err := api.New(ts.URL).Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPlanning, m.Status)
	assert.NotNil(t, m.Participants)
}

func TestValidate(t *testing.T) {
	in := storagetest.SampleInput()
	assert.Empty(t, Validate(in))

	in.Status = "Unknown"
	assert.Equal(t, []string{"mission-status"}, Validate(in))

	in = storagetest.SampleInput()
	in.Participants = append(in.Participants, core.Participant{UserID: "u1", Roles: []string{}})
	assert.Equal(t, []string{FieldParticipants}, Validate(in))

	in = storagetest.SampleInput()
	in.Participants = append(in.Participants, core.Participant{Roles: []string{}})
	assert.Equal(t, []string{FieldParticipants}, Validate(in))
}

func TestReferenceEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()

	users, err := refdata.HTTPDirectory{URL: ts.URL + "/api/users"}.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Hauler", users[0].AydoHandle)

	entries, err := refdata.HTTPCatalog{URL: ts.URL + "/api/ships"}.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MISC", entries[0].Manufacturer)
}

type failingDirectory struct{}

func (failingDirectory) Users(context.Context) ([]core.DirectoryUser, error) {
	return nil, errors.New("directory down")
}

func TestUsers_SourceFailure(t *testing.T) {
	s, err := New(memory.New(memory.Config{}), failingDirectory{}, nil, config.ServerConfig{})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ships", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestHealthcheck(t *testing.T) {
	_, ts := newTestServer(t)
	assert.NoError(t, api.New(ts.URL).Healthcheck(context.Background()))
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/missions", bytes.NewReader(nil))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNotifications(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL, err := api.WatchURL(ts.URL)
	require.NoError(t, err)
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	client := api.New(ts.URL)
	created, err := client.Create(context.Background(), storagetest.SampleInput())
	require.NoError(t, err)
	require.NoError(t, client.Delete(context.Background(), created.ID))

	read := func() streaming.Envelope {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env streaming.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	}

	env := read()
	assert.Equal(t, streaming.TypeMissionSaved, env.Type)
	var saved streaming.MissionSavedPayload
	require.NoError(t, env.Decode(&saved))
	assert.Equal(t, created.ID, saved.Mission.ID)
	assert.True(t, saved.Created)

	env = read()
	assert.Equal(t, streaming.TypeMissionDeleted, env.Type)
	var deleted streaming.MissionDeletedPayload
	require.NoError(t, env.Decode(&deleted))
	assert.Equal(t, created.ID, deleted.MissionID)
}

func TestServe_Shutdown(t *testing.T) {
	s, err := New(memory.New(memory.Config{}), nil, nil, config.ServerConfig{ShutdownTimeout: time.Second})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := api.New("http://" + ln.Addr().String())
	require.Eventually(t, func() bool {
		return client.Healthcheck(context.Background()) == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
