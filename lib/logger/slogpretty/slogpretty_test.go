package slogpretty

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: level}}
	return slog.New(opts.NewPrettyHandler(&buf)), &buf
}

func TestPrettyHandler_LevelAndMessage(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	log.Debug("hidden")
	log.Warn("cache slow", slog.String("op", "service.translation.get"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: cache slow")
	assert.Contains(t, out, `"op": "service.translation.get"`)
}

func TestPrettyHandler_GroupsNest(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	log.With(slog.String("component", "relay")).
		WithGroup("session").
		With(slog.String("id", "s-1")).
		Info("joined", slog.String("room", "r-1"), slog.Group("lang", slog.String("src", "en")))

	out := buf.String()
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &fields))

	assert.Equal(t, "relay", fields["component"])
	session, ok := fields["session"].(map[string]any)
	require.True(t, ok, "session group missing: %s", out)
	assert.Equal(t, "s-1", session["id"])
	assert.Equal(t, "r-1", session["room"])
	assert.Equal(t, map[string]any{"src": "en"}, session["lang"])
	assert.NotContains(t, fields, "room")
}

func TestPrettyHandler_DerivedHandlersKeepOptions(t *testing.T) {
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelWarn}}
	h := opts.NewPrettyHandler(&bytes.Buffer{})

	withAttrs, ok := h.WithAttrs([]slog.Attr{slog.Int("n", 1)}).(*PrettyHandler)
	require.True(t, ok)
	assert.Equal(t, opts, withAttrs.opts)

	withGroup, ok := withAttrs.WithGroup("g").(*PrettyHandler)
	require.True(t, ok)
	assert.Equal(t, opts, withGroup.opts)
	assert.Equal(t, []string{"g"}, withGroup.groups)
	assert.Same(t, withAttrs, withAttrs.WithGroup(""))
}
