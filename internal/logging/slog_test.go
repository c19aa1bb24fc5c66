package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_LevelFilters(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelWarn)

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	log.With("module", "checkin").Info(context.Background(), "checked in", "trakt_id", 42)

	assert.Contains(t, buf.String(), "module=checkin")
	assert.Contains(t, buf.String(), "trakt_id=42")
}

func TestSlogLogger_RedactsCredentials(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	log.With("client_secret", "s3cret").Debug(context.Background(), "token response",
		"access_token", "at-123", "Refresh_Token", "rt-456", "username", "alice")

	out := buf.String()
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "at-123")
	assert.NotContains(t, out, "rt-456")
	assert.Contains(t, out, "username=alice")
	assert.Contains(t, out, "access_token="+redacted)
}

func TestRedactArgs_LeavesInputAlone(t *testing.T) {
	in := []any{"state", "nonce", "op", "connect"}
	out := redactArgs(in)

	assert.Equal(t, []any{"state", redacted, "op", "connect"}, out)
	assert.Equal(t, "nonce", in[1])

	plain := []any{"op", "connect", "dangling"}
	assert.Equal(t, plain, redactArgs(plain))
}
