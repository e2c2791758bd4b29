package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesGauges(t *testing.T) {
	m := New()
	rooms := 3
	m.TrackRooms(func() int { return rooms })
	m.Connections.Inc()
	m.Connections.Inc()
	m.Connections.Dec()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Connections))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "ws_active_connections 1")
	assert.Contains(t, body, "game_active_rooms 3")
	assert.Contains(t, body, "ws_dropped_clients_total 0")
}
