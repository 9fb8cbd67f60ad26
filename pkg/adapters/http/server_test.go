package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pathquiz/internal/testutils"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/observability"
	"github.com/aretw0/pathquiz/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	mgr     *session.Manager
	sched   *testutils.ManualScheduler
	streams *StreamManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	streams := NewStreamManager()
	sched := testutils.NewManualScheduler()
	catalog := memory.NewSeededCatalog()
	mgr := session.NewManager(testutils.SiteDefinition(t), memory.NewStore(),
		session.WithScheduler(sched),
		session.WithCatalog(catalog),
		session.WithNotifier(streams.Notify),
	)
	t.Cleanup(mgr.Close)

	h := NewHandler(mgr,
		WithStreams(streams),
		WithCatalog(catalog),
		WithMetrics(observability.NewMetrics().Handler()),
		WithVersion("1.2.3"),
	)
	return &fixture{handler: h, mgr: mgr, sched: sched, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	w := f.do(t, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	d := decode[domain.Directive](t, w)
	require.NotEmpty(t, d.SessionID)
	assert.Equal(t, "/sessions/"+d.SessionID, w.Header().Get("Location"))
	return d.SessionID
}

func TestServer_PlayThrough(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	for step, opt := range []int{0, 3, 0} {
		w := f.do(t, "POST", "/sessions/"+id+"/select",
			fmt.Sprintf(`{"step_index":%d,"option_index":%d}`, step, opt))
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[ActionResponse](t, w)
		require.True(t, resp.Accepted, "step %d", step)
		f.sched.Advance(time.Second)
	}

	w := f.do(t, "GET", "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[domain.Directive](t, w)
	assert.True(t, d.Completed)
	require.NotNil(t, d.Result)
	assert.Equal(t, "Flexible Learning Plan", d.Result.Title)
	assert.Equal(t, "Graphic Design for Beginners", d.Result.Courses[0].Title)
	assert.Equal(t, "Digital Marketing Masterclass", d.Result.Courses[1].Title)
}

func TestServer_ForgivingInputs(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	w := f.do(t, "POST", "/sessions/"+id+"/select", `{"step_index":0,"option_index":9}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ActionResponse](t, w)
	assert.False(t, resp.Accepted)
	assert.Equal(t, 0, resp.Directive.StepIndex)

	w = f.do(t, "POST", "/sessions/"+id+"/back", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[ActionResponse](t, w).Accepted)

	w = f.do(t, "POST", "/sessions/"+id+"/select", `{"step_index":0,"option_index":1}`)
	assert.True(t, decode[ActionResponse](t, w).Accepted)

	// Still locked: a double submit is ignored.
	w = f.do(t, "POST", "/sessions/"+id+"/select", `{"step_index":1,"option_index":1}`)
	resp = decode[ActionResponse](t, w)
	assert.False(t, resp.Accepted)
	assert.True(t, resp.Directive.LockHeld)

	w = f.do(t, "POST", "/sessions/"+id+"/restart", "")
	resp = decode[ActionResponse](t, w)
	assert.True(t, resp.Accepted)
	assert.Equal(t, 0, resp.Directive.StepIndex)
	assert.False(t, resp.Directive.LockHeld)
}

func TestServer_BadRequests(t *testing.T) {
	f := newFixture(t)
	id := f.create(t)

	w := f.do(t, "POST", "/sessions/"+id+"/select", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "POST", "/sessions/"+id+"/select", `{"option_index":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/sessions/missing"},
		{"POST", "/sessions/missing/back"},
		{"POST", "/sessions/missing/restart"},
		{"DELETE", "/sessions/missing"},
		{"GET", "/sessions/missing/events"},
	} {
		w := f.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestServer_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	b := f.create(t)

	w := f.do(t, "GET", "/sessions", "")
	list := decode[map[string][]string](t, w)
	assert.ElementsMatch(t, []string{a, b}, list["sessions"])

	w = f.do(t, "DELETE", "/sessions/"+a, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/sessions", "")
	list = decode[map[string][]string](t, w)
	assert.Equal(t, []string{b}, list["sessions"])
}

func TestServer_Metadata(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", "")
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = f.do(t, "GET", "/info", "")
	info := decode[map[string]any](t, w)
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "learning-path", info["definition"])

	w = f.do(t, "GET", "/definition", "")
	def := decode[domain.QuizDefinition](t, w)
	assert.Len(t, def.Steps, 3)

	w = f.do(t, "GET", "/courses", "")
	courses := decode[[]domain.Course](t, w)
	assert.Len(t, courses, len(memory.SeedCourses()))

	w = f.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pathquiz_transitions_total")
}

func TestServer_CORS(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()
	id := f.create(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case e := <-events:
			return e
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return ""
		}
	}
	assert.Equal(t, "ping", next())
	assert.Equal(t, "directive", next())

	require.Eventually(t, func() bool { return f.streams.Subscribers(id) == 1 }, time.Second, 10*time.Millisecond)

	w := f.do(t, "POST", "/sessions/"+id+"/select", `{"step_index":0,"option_index":2}`)
	require.True(t, decode[ActionResponse](t, w).Accepted)
	f.sched.Advance(time.Second)

	assert.Equal(t, session.UpdateTransition, next())
	assert.Equal(t, session.UpdateTransition, next())
	assert.Equal(t, session.UpdateTransition, next())

	w = f.do(t, "DELETE", "/sessions/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	_, open := <-events
	assert.False(t, open, "deleting the session ends the stream")
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < streamBuffer+5; i++ {
		sm.Broadcast("s", "transition", []byte("{}"))
	}
	assert.Len(t, ch, streamBuffer)
	cancel()
	cancel()
	assert.Zero(t, sm.Subscribers("s"))
}
