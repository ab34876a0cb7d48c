package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_RecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/polls/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/polls/a", "/api/polls/b", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/polls/:id", "200")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.InDelta(t, 0, testutil.ToFloat64(m.InFlight), 0)
}

func TestBroadcastMetrics_SetBreakerState(t *testing.T) {
	m := NewBroadcastMetrics(prometheus.NewRegistry())

	m.SetBreakerState("open")
	assert.Equal(t, 1, testutil.CollectAndCount(m.BreakerState))
	assert.InDelta(t, 1, testutil.ToFloat64(m.BreakerState.WithLabelValues("open")), 0)

	m.SetBreakerState("closed")
	assert.InDelta(t, 1, testutil.ToFloat64(m.BreakerState.WithLabelValues("closed")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.BreakerState.WithLabelValues("open")), 0)
}

func TestNewRegistry_ServesAllCollectors(t *testing.T) {
	reg := NewRegistry()
	NewVoteMetrics(reg).Votes.WithLabelValues(VoteRecorded).Inc()
	NewWebSocketMetrics(reg).ActiveConnections.Set(3)
	NewBroadcastMetrics(reg)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `pollpulse_votes_total{result="recorded"} 1`)
	assert.Contains(t, body, "pollpulse_websocket_active_connections 3")
	assert.Contains(t, body, "go_goroutines")
}

func TestRegisterRoomGauges_ReadAtScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	rooms, members := 0, 0
	RegisterRoomGauges(reg, func() int { return rooms }, func() int { return members })

	rooms, members = 2, 5
	families, err := reg.Gather()
	require.NoError(t, err)

	values := gaugeValues(families)
	assert.InDelta(t, 2, values["pollpulse_broadcast_rooms"], 0)
	assert.InDelta(t, 5, values["pollpulse_broadcast_subscriptions"], 0)
}

func gaugeValues(families []*dto.MetricFamily) map[string]float64 {
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_GAUGE || len(mf.GetMetric()) == 0 {
			continue
		}
		values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	return values
}
