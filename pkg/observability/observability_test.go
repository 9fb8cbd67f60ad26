package observability_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/pathquiz/internal/runtime"
	"github.com/aretw0/pathquiz/internal/testutils"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, hooks domain.LifecycleHooks) {
	t.Helper()
	sched := testutils.NewManualScheduler()
	e := runtime.NewEngine(testutils.SiteDefinition(t), "obs",
		runtime.WithScheduler(sched), runtime.WithLifecycleHooks(hooks))
	defer e.Close()
	ctx := context.Background()

	_, _ = e.Select(ctx, 0, 1)
	_, _ = e.Select(ctx, 1, 0) // locked
	sched.Advance(time.Second)
	_, _ = e.Back(ctx)
	sched.Advance(time.Second)
	_, _ = e.Select(ctx, 0, 1)
	sched.Advance(time.Second)
	_, _ = e.Select(ctx, 1, 0)
	sched.Advance(time.Second)
	_, _ = e.Select(ctx, 2, 3)
	e.Restart(ctx)
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	play(t, m.Hooks())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Transitions.WithLabelValues("forward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("backward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("select", "locked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions.WithLabelValues("Data Science Path")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Restarts))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TransitionDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Restarts.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pathquiz_restarts_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	play(t, observability.LoggingHooks(logger))

	out := buf.String()
	assert.Contains(t, out, "msg=step_transition")
	assert.Contains(t, out, "msg=quiz_complete")
	assert.Contains(t, out, `result="Data Science Path"`)
	assert.Contains(t, out, "msg=quiz_restart")
	assert.NotContains(t, out, "input_rejected", "rejections are debug only")
}
