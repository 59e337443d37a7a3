package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
)

type fakeTree struct {
	halts atomic.Int32
}

func (f *fakeTree) Snapshot() *domain.TreeSnapshot {
	return &domain.TreeSnapshot{
		TreeID:     "main",
		UID:        "uid-1",
		Status:     domain.StatusRunning,
		Rounds:     4,
		Root:       &domain.NodeSnapshot{Name: "root", ID: "Sequence", Type: domain.NodeTypeControl, Status: domain.StatusRunning},
		Blackboard: map[string]string{"answer": "42"},
	}
}

func (f *fakeTree) Halt() { f.halts.Add(1) }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "canopy_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httpadapter.NewServer(httpadapter.WithGatherer(reg))
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/tree")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	tree := &fakeTree{}
	srv.Attach(tree)

	w = do(t, h, http.MethodGet, "/tree")
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.TreeSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, domain.StatusRunning, snap.Status)
	assert.Equal(t, "Sequence", snap.Root.ID)

	w = do(t, h, http.MethodGet, "/blackboard")
	assert.JSONEq(t, `{"answer":"42"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/halt")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	w = do(t, h, http.MethodPost, "/halt")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, int32(1), tree.halts.Load())

	w = do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "canopy_test_total 1")

	w = do(t, h, http.MethodGet, "/info")
	assert.Contains(t, w.Body.String(), `"app":"canopy"`)

	w = do(t, h, http.MethodOptions, "/tree")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Events(t *testing.T) {
	srv := httpadapter.NewServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?type=status_change", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, "event: ping\n", readLine(t, r))
	assert.Equal(t, "data: connected\n", readLine(t, r))
	readLine(t, r)

	hooks := srv.Hooks()
	base := domain.EventBase{Timestamp: time.Now(), TreeID: "main"}
	tick := base
	tick.Type = domain.EventTickEnd
	hooks.OnTickEnd(ctx, &domain.TickEvent{EventBase: tick, Round: 1})
	change := base
	change.Type = domain.EventStatusChange
	hooks.OnStatusChange(ctx, &domain.NodeEvent{EventBase: change, Path: "root/leaf", Prev: domain.StatusIdle, Status: domain.StatusRunning})

	assert.Equal(t, "event: status_change\n", readLine(t, r), "tick_end filtered out")
	data := strings.TrimPrefix(readLine(t, r), "data: ")
	var ev domain.NodeEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "root/leaf", ev.Path)
	assert.Equal(t, domain.StatusRunning, ev.Status)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return line
}
