package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/metrics"
	"github.com/ykvlv/reminder-bot/internal/scheduler"
)

func newTestServer(t *testing.T) (*httptest.Server, *scheduler.Scheduler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 5, 5, 8, 0, 0, 0, loc)
	sched := scheduler.New(zaptest.NewLogger(t),
		scheduler.WithLocation(loc),
		scheduler.WithClock(func() time.Time { return now }),
		scheduler.WithMetrics(m),
	)
	srv := httptest.NewServer(newHTTPHandler(sched, reg))
	t.Cleanup(srv.Close)
	return srv, sched
}

func getDump(t *testing.T, url string) scheduleDump {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var dump scheduleDump
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dump))
	return dump
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestDebugSchedule(t *testing.T) {
	srv, sched := newTestServer(t)
	noop := func(_ context.Context, _ int64, _ string) error { return nil }

	dump := getDump(t, srv.URL+"/debug/schedule")
	assert.Zero(t, dump.Keys)
	assert.Empty(t, dump.Jobs)

	_, err := sched.AddJob(1, "09:00", 0, noop)
	require.NoError(t, err)
	_, err = sched.AddJob(2, "10:00", domain.NewDaySet(time.Monday, time.Friday), noop)
	require.NoError(t, err)

	dump = getDump(t, srv.URL+"/debug/schedule")
	assert.Equal(t, 2, dump.Keys)
	require.Len(t, dump.Jobs, 3)
	assert.Equal(t, "daily", dump.Jobs[0].Weekday)

	dump = getDump(t, srv.URL+"/debug/schedule/2")
	assert.Equal(t, 1, dump.Keys)
	require.Len(t, dump.Jobs, 2)
	assert.Equal(t, "monday", dump.Jobs[0].Weekday)
	assert.Equal(t, "friday", dump.Jobs[1].Weekday)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, sched := newTestServer(t)
	_, err := sched.AddJob(1, "09:00", 0, func(context.Context, int64, string) error { return nil })
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body strings.Builder
	_, err = io.Copy(&body, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "reminders_scheduled_keys 1")
}
