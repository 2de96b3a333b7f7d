package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyfocus/internal/core/clock"
	"studyfocus/internal/core/model"
	"studyfocus/internal/core/pomodoro"
	"studyfocus/internal/errclass"
	"studyfocus/internal/metrics"
	"studyfocus/internal/platform"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSessions struct {
	records  []model.SessionRecord
	err      error
	gotUser  string
	gotLimit int
}

func (s *stubSessions) List(_ context.Context, userID string, limit int) ([]model.SessionRecord, error) {
	s.gotUser = userID
	s.gotLimit = limit
	return s.records, s.err
}

type fixture struct {
	engine     *pomodoro.Engine
	clock      *clock.Fake
	foreground *platform.ManualSignal
	sessions   *stubSessions
	metrics    *metrics.Registry
	handler    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))
	registry := metrics.NewRegistry()
	engine := pomodoro.New(model.DefaultSettings(), pomodoro.Config{Clock: fake, Metrics: registry})
	t.Cleanup(engine.Close)

	foreground := platform.NewManualSignal()
	t.Cleanup(engine.WatchForeground(foreground))
	sessions := &stubSessions{}

	server := NewServer(Options{
		Timer:      engine,
		Sessions:   sessions,
		Foreground: foreground,
		Metrics:    registry.Handler(),
		UserID:     "alice",
	})
	return &fixture{
		engine:     engine,
		clock:      fake,
		foreground: foreground,
		sessions:   sessions,
		metrics:    registry,
		handler:    server.Handler(),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) StateView {
	t.Helper()
	var view StateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandleState(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeState(t, w)
	assert.Equal(t, model.ModeWork, view.Mode)
	assert.Equal(t, 1500, view.RemainingSeconds)
	assert.Equal(t, 1500, view.DurationSeconds)
	assert.Equal(t, 4, view.SessionsUntilLongBreak)
	assert.False(t, view.Running)
	assert.Nil(t, view.SessionStartTimestamp)
}

func TestHandleStartPauseReset(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/start", `{"goal":"chapter 3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeState(t, w)
	assert.True(t, view.Running)
	assert.Equal(t, "chapter 3", view.Goal)
	require.NotNil(t, view.SessionStartTimestamp)
	assert.Equal(t, f.clock.Now().UnixMilli(), *view.SessionStartTimestamp)

	w = f.do(t, http.MethodPost, "/api/pause", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeState(t, w).Running)

	w = f.do(t, http.MethodPost, "/api/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeState(t, w).Running)

	w = f.do(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeState(t, w)
	assert.False(t, view.Running)
	assert.Equal(t, 1500, view.RemainingSeconds)
	assert.Empty(t, view.SessionID)
}

func TestHandleStartRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/start", `{"goal":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, f.engine.State().Running)
}

func TestHandleMode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		code     string
		wantMode model.Mode
	}{
		{"long break", `{"mode":"longBreak"}`, http.StatusOK, "", model.ModeLongBreak},
		{"break", `{"mode":"break"}`, http.StatusOK, "", model.ModeBreak},
		{"unknown mode", `{"mode":"nap"}`, http.StatusBadRequest, "E_MODE_INVALID", model.ModeWork},
		{"missing mode", `{}`, http.StatusBadRequest, "E_BAD_REQUEST", model.ModeWork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(t, http.MethodPost, "/api/mode", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeErrorCode(t, w))
			}
			assert.Equal(t, tt.wantMode, f.engine.State().Mode)
		})
	}
}

func TestHandleForegroundReconciles(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/start", "")

	w := f.do(t, http.MethodPost, "/api/foreground", `{"active":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.engine.Foreground())

	f.clock.Set(f.clock.Now().Add(2 * time.Minute))
	w = f.do(t, http.MethodPost, "/api/foreground", `{"active":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Active bool      `json:"active"`
		State  StateView `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Active)
	assert.Equal(t, 1380, body.State.RemainingSeconds)

	w = f.do(t, http.MethodPost, "/api/foreground", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSessions(t *testing.T) {
	f := newFixture(t)
	f.sessions.records = []model.SessionRecord{{
		ID:              "s1",
		UserID:          "alice",
		SessionType:     model.ModeWork,
		DurationSeconds: 1500,
		Completed:       true,
		CreatedAt:       time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
		Final:           true,
	}}

	w := f.do(t, http.MethodGet, "/api/sessions?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", f.sessions.gotUser)
	assert.Equal(t, 5, f.sessions.gotLimit)

	var body struct {
		Sessions []map[string]any `json:"sessions"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "work", body.Sessions[0]["session_type"])
	assert.Equal(t, float64(1500), body.Sessions[0]["duration"])

	w = f.do(t, http.MethodGet, "/api/sessions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.sessions.err = errclass.ErrStoreUnavailable.WithMessage("database is locked")
	w = f.do(t, http.MethodGet, "/api/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "E_STORE_UNAVAILABLE", decodeErrorCode(t, w))
	assert.Equal(t, defaultSessionLimit, f.sessions.gotLimit)
}

func TestUnconfiguredRoutes(t *testing.T) {
	engine := pomodoro.New(model.DefaultSettings(), pomodoro.Config{Clock: clock.NewFake(time.Now())})
	t.Cleanup(engine.Close)
	handler := NewServer(Options{Timer: engine}).Handler()

	for _, path := range []string{"/api/sessions", "/metrics"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

func TestHandleMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/mode", `{"mode":"break"}`)
	f.do(t, http.MethodPost, "/api/start", "")
	f.clock.Advance(300 * time.Second)
	assert.Eventually(t, func() bool {
		return f.engine.State().Mode == model.ModeWork
	}, 2*time.Second, 5*time.Millisecond)

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `studyfocus_completions_total{mode="break"} 1`))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	engine := pomodoro.New(model.DefaultSettings(), pomodoro.Config{Clock: clock.NewFake(time.Now())})
	t.Cleanup(engine.Close)
	server := NewServer(Options{Timer: engine})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
