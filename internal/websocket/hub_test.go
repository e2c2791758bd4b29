package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/gyeongdo-backend/internal"
	"github.com/scythe504/gyeongdo-backend/internal/game"
)

type envelope = internal.Message[json.RawMessage]

func newTestServer(t *testing.T, cfg Config) (*Hub, *httptest.Server) {
	t.Helper()
	conns := game.NewConnectionRegistry()
	hub := NewHub(cfg, conns, nil)
	rooms := game.NewRegistry(game.RegistryConfig{
		Room:   game.RoomConfig{TickInterval: time.Hour},
		Sender: hub,
	})
	hub.Attach(game.NewRouter(rooms, conns, nil, nil))

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		rooms.Shutdown()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(internal.Message[any]{Type: eventType, Data: data}))
}

// next reads until a message of eventType arrives.
func next(t *testing.T, conn *websocket.Conn, eventType string) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg envelope
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == eventType {
			return msg
		}
	}
}

func TestJoinOverWebsocket(t *testing.T) {
	_, srv := newTestServer(t, Config{})

	host := dial(t, srv)
	send(t, host, internal.EventRoomJoin, internal.JoinRequest{RoomID: "R1", SessionID: "A", Nickname: "alice"})

	var joined internal.RoomJoinedData
	require.NoError(t, json.Unmarshal(next(t, host, internal.EventRoomJoined).Data, &joined))
	assert.Equal(t, "R1", joined.RoomID)
	assert.True(t, joined.IsHost)
	assert.Equal(t, internal.TeamUnassigned, joined.MyTeam)

	guest := dial(t, srv)
	send(t, guest, internal.EventRoomJoin, internal.JoinRequest{RoomID: "R1", SessionID: "B"})
	require.NoError(t, json.Unmarshal(next(t, guest, internal.EventRoomJoined).Data, &joined))
	assert.False(t, joined.IsHost)

	// the host sees the roster grow to two
	for {
		var players []internal.PlayerView
		require.NoError(t, json.Unmarshal(next(t, host, internal.EventPlayersUpdated).Data, &players))
		if len(players) == 2 {
			assert.Equal(t, "A", players[0].SessionID)
			assert.True(t, players[0].IsHost)
			assert.Equal(t, "User-B", players[1].Nickname)
			break
		}
	}
}

func TestHostOnlyEventRejectedForGuest(t *testing.T) {
	_, srv := newTestServer(t, Config{})

	host := dial(t, srv)
	send(t, host, internal.EventRoomJoin, internal.JoinRequest{RoomID: "R1", SessionID: "A"})
	next(t, host, internal.EventRoomJoined)

	guest := dial(t, srv)
	send(t, guest, internal.EventRoomJoin, internal.JoinRequest{RoomID: "R1", SessionID: "B"})
	next(t, guest, internal.EventRoomJoined)

	send(t, guest, internal.EventGameStart, nil)

	var errData internal.ErrorData
	require.NoError(t, json.Unmarshal(next(t, guest, internal.EventError).Data, &errData))
	assert.Equal(t, "forbidden", errData.Code)
	assert.Equal(t, internal.EventGameStart, errData.Event)
}

func TestMalformedFrameGetsError(t *testing.T) {
	_, srv := newTestServer(t, Config{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var errData internal.ErrorData
	require.NoError(t, json.Unmarshal(next(t, conn, internal.EventError).Data, &errData))
	assert.Equal(t, "invalid_argument", errData.Code)
}

func TestRateLimitedFramesAreRejected(t *testing.T) {
	_, srv := newTestServer(t, Config{RatePerSecond: 1})
	conn := dial(t, srv)

	for i := 0; i < 5; i++ {
		send(t, conn, internal.EventLocationUpdate, map[string]float64{"lat": 1, "lng": 1})
	}

	var errData internal.ErrorData
	require.NoError(t, json.Unmarshal(next(t, conn, internal.EventError).Data, &errData))
	assert.Equal(t, "rate_limited", errData.Code)
}

func TestDisconnectRemovesClient(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ws_active_connections"})
	hub, srv := newTestServer(t, Config{Connections: gauge})
	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.Len() == 1 && testutil.ToFloat64(gauge) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	require.Eventually(t, func() bool {
		return hub.Len() == 0 && testutil.ToFloat64(gauge) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendToUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub(Config{}, game.NewConnectionRegistry(), nil)
	hub.SendTo("missing", internal.Message[any]{Type: internal.EventError})
	hub.Broadcast("R1", internal.Message[any]{Type: internal.EventPlayersUpdated})
	assert.Equal(t, 0, hub.Len())
}
