package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 2, LevelTrace},
		{"", 5, LevelTrace},
		{"trace", 0, LevelTrace},
		{"DEBUG", 0, slog.LevelDebug},
		{" warning ", 0, slog.LevelWarn},
		{"warn", 2, slog.LevelWarn},
		{"error", 0, slog.LevelError},
		{"info", 1, slog.LevelInfo},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		require.NoError(t, err, tt.verbosity)
		assert.Equal(t, tt.want, got, "%q -v×%d", tt.verbosity, tt.count)
	}

	_, err := ParseLevel("loud", 0)
	assert.Error(t, err)
}

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).With("component", "web")

	l.Info("request completed",
		"requestID", "0123456789abcdef",
		"path", "/api/views",
		"status", 201,
		"durationMs", int64(12),
		"error", errors.New("boom"),
		"note", "two words",
	)

	line := buf.String()
	assert.Regexp(t, `^\[INFO\]  \d{2}:\d{2}:\d{2} web: `, line)
	assert.Equal(t,
		`[INFO]  00:00:00 web: request completed | req=01234567 path=/api/views status=201 duration=12ms error="boom" note="two words"`+"\n",
		clock.ReplaceAllString(line, "00:00:00"))
}

func TestCompactHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Warn("careful")
	assert.Contains(t, buf.String(), "[WARN]  ")
	assert.NotContains(t, buf.String(), " | ", "no attributes, no separator")

	buf.Reset()
	l.Log(context.Background(), slog.LevelError+2, "bad")
	assert.Contains(t, buf.String(), "[ERROR] ")
}

func TestCompactHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, nil)).WithGroup("graph").With("nodes", 3)

	l.Info("normalized", "edges", 2)
	assert.Contains(t, buf.String(), "normalized | graph.nodes=3 graph.edges=2")
}

func TestComponentLoggerFollowsOutput(t *testing.T) {
	log := New("session")

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer SetLevel(slog.LevelInfo)

	log.Info("opened view", "module", "call_graph")
	assert.Contains(t, buf.String(), "session: opened view | module=call_graph")

	buf.Reset()
	log.Debug("quiet")
	assert.Empty(t, buf.String())

	SetLevel(slog.LevelDebug)
	log.Debug("loud")
	assert.Contains(t, buf.String(), "[DEBUG]")
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	ctx := WithSessionID(WithRequestID(context.Background(), "aaaaaaaa-1111"), "bbbbbbbb-2222")
	assert.Equal(t, "aaaaaaaa-1111", GetRequestID(ctx))
	assert.Equal(t, "bbbbbbbb-2222", GetSessionID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))

	InfoContext(ctx, "selection applied")
	assert.Contains(t, buf.String(), "selection applied | req=aaaaaaaa session=bbbbbbbb")
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/views/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "status=404")

	req := httptest.NewRequest(http.MethodGet, "/api/views/x", nil)
	req.Header.Set("X-Request-ID", "given")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "given", seen)
}
