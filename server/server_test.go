package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/viewer"
)

func newTestServer(t *testing.T) (*Server, *viewer.Viewer, *Hub) {
	t.Helper()
	hub := NewHub()
	opts := viewer.DefaultOptions()
	opts.TickInterval = time.Millisecond
	opts.Navigator = hub
	v := viewer.New(models.SampleGraph(), opts, nil)
	require.NoError(t, v.Mount(context.Background()))
	t.Cleanup(func() { v.Unmount() })

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	return NewServer(cfg, v, hub, nil), v, hub
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleIndex(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Sample</title>")
	assert.Contains(t, rec.Body.String(), `new EventSource("/api/events")`)
	assert.Contains(t, rec.Body.String(), "pending = pending.then(", "gesture posts are sequenced")

	rec = do(t, s.Handler(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGraphAndFrame(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var graph struct {
		Nodes []models.Node `json:"nodes"`
		Edges []models.Edge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Len(t, graph.Nodes, 4)
	assert.Len(t, graph.Edges, 4)

	rec = do(t, h, http.MethodGet, "/api/frame", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var frame render.FrameDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	assert.Len(t, frame.Nodes, 4)
	assert.Equal(t, "arrow", frame.Marker.ID)

	rec = do(t, h, http.MethodGet, "/frame.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<marker id="arrow"`)
}

type failingWriter struct {
	header http.Header
}

func (f *failingWriter) Header() http.Header {
	return f.header
}

func (f *failingWriter) WriteHeader(int) {}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestHandleFrameSVG_LogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	_, v, hub := newTestServer(t)
	s := NewServer(DefaultConfig(), v, hub, zap.New(core))
	defer s.remove()

	w := &failingWriter{header: make(http.Header)}
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/frame.svg", nil))

	entries := logs.FilterMessage("failed to write SVG frame").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}

func TestHandleHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Mounted)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "forcegraph_simulation_ticks_total")
}

func TestDragEndpoints(t *testing.T) {
	s, v, _ := newTestServer(t)
	h := s.Handler()
	sim, err := v.Simulation()
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/drag/start", nodeRequest{ID: "Ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/drag/move", nodeRequest{ID: "Apple", X: 1, Y: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/drag/start", nodeRequest{ID: "Apple"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/drag/move", nodeRequest{ID: "Apple", X: 100, Y: 200})
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Eventually(t, func() bool {
		pos, _ := sim.Frame().Position("Apple")
		return pos == r2.Vec{X: 100, Y: 200}
	}, 2*time.Second, time.Millisecond)

	rec = do(t, h, http.MethodPost, "/api/drag/end", nodeRequest{ID: "Apple"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0.0, sim.AlphaTarget())

	req := httptest.NewRequest(http.MethodPost, "/api/drag/start", strings.NewReader("{"))
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = do(t, h, http.MethodGet, "/api/drag/start", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResizeEndpoint(t *testing.T) {
	s, v, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/resize", resizeRequest{Width: 1600, Height: 1200})
	require.Equal(t, http.StatusNoContent, rec.Code)
	surface, err := v.Surface()
	require.NoError(t, err)
	w, ht := surface.Size()
	assert.Equal(t, 1600.0, w)
	assert.Equal(t, 1200.0, ht)

	rec = do(t, h, http.MethodPost, "/api/resize", resizeRequest{Width: -1, Height: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClick_WithoutBrowserDoesNotNavigate(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/api/click", nodeRequest{ID: "Apple"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp clickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Navigated)
}

func TestUnmountedViewer(t *testing.T) {
	hub := NewHub()
	v := viewer.New(models.SampleGraph(), viewer.DefaultOptions(), nil)
	s := NewServer(DefaultConfig(), v, hub, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/api/frame", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, s.Handler(), http.MethodPost, "/api/click", nodeRequest{ID: "Apple"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func readEvent(t *testing.T, scanner *bufio.Scanner, want string) string {
	t.Helper()
	for scanner.Scan() {
		line := scanner.Text()
		if line != "event: "+want {
			continue
		}
		require.True(t, scanner.Scan())
		return strings.TrimPrefix(scanner.Text(), "data: ")
	}
	t.Fatalf("stream ended before %q event: %v", want, scanner.Err())
	return ""
}

func TestEventStream_FramesAndNavigation(t *testing.T) {
	s, v, hub := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	sim, err := v.Simulation()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !sim.Running() }, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	readEvent(t, scanner, "connected")

	var frame render.FrameDocument
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, scanner, "frame")), &frame))
	assert.Len(t, frame.Nodes, 4)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	click, err := http.Post(ts.URL+"/api/click", "application/json", strings.NewReader(`{"id":"Samsung"}`))
	require.NoError(t, err)
	var cr clickResponse
	require.NoError(t, json.NewDecoder(click.Body).Decode(&cr))
	click.Body.Close()
	assert.True(t, cr.Navigated)

	var nav NavigateEvent
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, scanner, "navigate")), &nav))
	assert.Equal(t, "https://www.samsung.com", nav.URL)
}

func TestHub_DropsWhenClientFallsBehind(t *testing.T) {
	hub := NewHub()
	client, err := NewClient(httptest.NewRecorder(), 1)
	require.NoError(t, err)
	hub.Register(client)
	defer hub.Unregister(client)

	hub.Broadcast(Event{Type: "frame", Data: json.RawMessage(`{}`)})
	hub.Broadcast(Event{Type: "frame", Data: json.RawMessage(`{}`)})
	assert.Len(t, client.send, 1)
}

// serveClient runs c until the returned stop function is called and returns
// what the client wrote
func serveClient(t *testing.T, c *Client, rec *httptest.ResponseRecorder) (stop func() string) {
	t.Helper()
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(quit, time.Minute)
	}()
	return func() string {
		close(quit)
		<-done
		return rec.Body.String()
	}
}

func TestHub_NavigateNeedsClient(t *testing.T) {
	hub := NewHub()
	assert.ErrorIs(t, hub.Navigate("https://example.com"), errNoClients)

	rec := httptest.NewRecorder()
	client, err := NewClient(rec, 4)
	require.NoError(t, err)
	hub.Register(client)
	stop := serveClient(t, client, rec)

	require.NoError(t, hub.Navigate("https://example.com"))
	body := stop()
	assert.Contains(t, body, "event: navigate\ndata: {\"url\":\"https://example.com\"}\n\n")

	hub.Unregister(client)
	assert.Equal(t, 0, hub.Clients())
}

func TestHub_NavigateSurvivesFullFrameQueue(t *testing.T) {
	hub := NewHub()
	rec := httptest.NewRecorder()
	client, err := NewClient(rec, 1)
	require.NoError(t, err)
	hub.Register(client)
	defer hub.Unregister(client)

	hub.Broadcast(Event{Type: "frame", Data: json.RawMessage(`{}`)})
	require.Len(t, client.send, 1)

	stop := serveClient(t, client, rec)
	require.NoError(t, hub.Navigate("https://example.com"))
	assert.Contains(t, stop(), "event: navigate")
}

func TestHub_NavigateFailsWhenNotDelivered(t *testing.T) {
	hub := NewHub()
	hub.navTimeout = 20 * time.Millisecond
	client, err := NewClient(httptest.NewRecorder(), 1)
	require.NoError(t, err)
	hub.Register(client)
	defer hub.Unregister(client)

	// Nothing serves the stream, so the event is never written.
	err = hub.Navigate("https://example.com")
	assert.ErrorIs(t, err, errTimeout)
}

func TestHub_NavigateTargetsOneClient(t *testing.T) {
	hub := NewHub()

	oldRec := httptest.NewRecorder()
	older, err := NewClient(oldRec, 4)
	require.NoError(t, err)
	hub.Register(older)
	stopOlder := serveClient(t, older, oldRec)

	newRec := httptest.NewRecorder()
	newer, err := NewClient(newRec, 4)
	require.NoError(t, err)
	hub.Register(newer)
	stopNewer := serveClient(t, newer, newRec)

	require.NoError(t, hub.Navigate("https://example.com"))
	assert.Equal(t, 1, strings.Count(stopNewer(), "event: navigate"))
	assert.NotContains(t, stopOlder(), "event: navigate")

	hub.Unregister(older)
	hub.Unregister(newer)
}

func TestHub_NavigateFallsBackWhenNewestIsGone(t *testing.T) {
	hub := NewHub()

	rec := httptest.NewRecorder()
	live, err := NewClient(rec, 4)
	require.NoError(t, err)
	hub.Register(live)
	stop := serveClient(t, live, rec)

	gone, err := NewClient(httptest.NewRecorder(), 4)
	require.NoError(t, err)
	hub.Register(gone)
	close(gone.done)

	require.NoError(t, hub.Navigate("https://example.com"))
	assert.Contains(t, stop(), "event: navigate")
	hub.Unregister(live)
}
