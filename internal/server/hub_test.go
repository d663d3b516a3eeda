package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-core/internal/parking"
)

type pushedSnapshot struct {
	Capacity int `json:"capacity"`
	Occupied int `json:"occupied"`
}

func dialHub(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()

	httpSrv := httptest.NewServer(ts.srv.Handler())
	t.Cleanup(httpSrv.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) pushedSnapshot {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var s pushedSnapshot
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestHubSendsCurrentStateOnConnect(t *testing.T) {
	ts := newTestServer(t, 4)
	conn := dialHub(t, ts)

	s := readSnapshot(t, conn)
	assert.Equal(t, 4, s.Capacity)
	assert.Zero(t, s.Occupied)
}

func TestHubPushesChanges(t *testing.T) {
	ts := newTestServer(t, 2)
	conn := dialHub(t, ts)

	_, err := ts.lot.Lot.EnterVehicle("A1", "car", t0)
	require.NoError(t, err)

	// Intermediate states may be coalesced, so read until the update lands.
	for {
		s := readSnapshot(t, conn)
		if s.Occupied == 1 {
			break
		}
	}
}

func TestStalledClientDoesNotDelayLot(t *testing.T) {
	const slots = 500
	ts := newTestServer(t, slots)
	dialHub(t, ts) // never read from

	var worst time.Duration
	for i := 0; i < slots; i++ {
		start := time.Now()
		_, err := ts.lot.Lot.EnterVehicle(fmt.Sprintf("KA%04d", i), "car", t0)
		require.NoError(t, err)
		if d := time.Since(start); d > worst {
			worst = d
		}
	}

	assert.Less(t, worst, time.Second, "worst EnterVehicle latency %s", worst)
	assert.Equal(t, slots, ts.lot.Lot.Snapshot().Occupied)
}

func TestHubPublishDoesNotBlockWithoutRunner(t *testing.T) {
	hub := NewHub()
	lot, err := parking.NewLot(1, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(lot.Snapshot())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
	assert.Zero(t, hub.ClientCount())
}
