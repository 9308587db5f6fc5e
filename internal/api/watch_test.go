package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aydocorp/opscomposer/internal/signal"
	"github.com/aydocorp/opscomposer/pkg/core"
	"github.com/aydocorp/opscomposer/pkg/streaming"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "http://localhost:8080", want: "ws://localhost:8080/ws"},
		{in: "https://ops.example.org/base/", want: "wss://ops.example.org/base/ws"},
		{in: "ftp://nope", wantErr: true},
	}
	for _, tt := range tests {
		got, err := WatchURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWatch_RepublishesNotifications(t *testing.T) {
	upgrader := ws.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		saved, _ := streaming.Marshal(streaming.TypeMissionSaved, streaming.MissionSavedPayload{Mission: core.Mission{ID: "m-1"}, Created: true})
		deleted, _ := streaming.Marshal(streaming.TypeMissionDeleted, streaming.MissionDeletedPayload{MissionID: "m-1"})
		_ = conn.WriteMessage(ws.TextMessage, []byte("garbage"))
		_ = conn.WriteMessage(ws.TextMessage, saved)
		_ = conn.WriteMessage(ws.TextMessage, deleted)

		// hold the socket open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	bus, err := signal.NewBus(nil)
	require.NoError(t, err)

	savedCh := make(chan signal.MissionSaved, 1)
	deletedCh := make(chan signal.MissionDeleted, 1)
	bus.MissionSaved.Subscribe(func(_ context.Context, v signal.MissionSaved) { savedCh <- v })
	bus.MissionDeleted.Subscribe(func(_ context.Context, v signal.MissionDeleted) { deletedCh <- v })

	w, err := New(server.URL).Watch(context.Background(), bus, nil)
	require.NoError(t, err)

	select {
	case v := <-savedCh:
		assert.Equal(t, "m-1", v.Mission.ID)
		assert.True(t, v.Created)
		assert.True(t, v.Remote)
	case <-time.After(2 * time.Second):
		t.Fatal("no saved notice")
	}
	select {
	case v := <-deletedCh:
		assert.Equal(t, signal.MissionDeleted{MissionID: "m-1", Remote: true}, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no deleted notice")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatch_DialFailure(t *testing.T) {
	bus, err := signal.NewBus(nil)
	require.NoError(t, err)

	_, err = New("http://localhost:59999").Watch(context.Background(), bus, nil)
	assert.ErrorContains(t, err, "websocket dial failed")
}
