package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_FailsFastWithoutRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		online bool
		linked bool
		want   error
	}{
		{name: "offline", online: false, linked: true, want: common.ErrOffline},
		{name: "not linked", online: true, linked: false, want: common.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.linked {
				e.link(t)
			}
			e.net.online = tt.online

			called := false
			err := e.exec.Do(context.Background(), "probe", func(ctx context.Context, token string) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, called)
		})
	}
}

func TestExecutor_PassesCurrentToken(t *testing.T) {
	e := newEnv(t)
	e.link(t)

	var got string
	err := e.exec.Do(context.Background(), "probe", func(ctx context.Context, token string) error {
		got = token
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "access-1", got)
}

func TestExecutor_401InvalidatesCredentials(t *testing.T) {
	e := newEnv(t)
	e.link(t)
	ctx := context.Background()

	err := e.exec.Do(ctx, "probe", func(ctx context.Context, token string) error {
		return httpErr(http.StatusUnauthorized, `{"error":"invalid_token"}`)
	})

	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, e.store.HasCredentials(ctx))
	assert.True(t, e.store.NeedsReconnect(ctx))
	assert.Equal(t, "alice", e.store.Username(ctx))
	assert.Contains(t, e.bus.types(), events.CredentialsInvalidated)
}

func TestExecutor_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "locked", status: http.StatusLocked, want: common.ErrAccountLocked},
		{name: "not found", status: http.StatusNotFound, want: common.ErrNotFound},
		{name: "validation", status: http.StatusUnprocessableEntity, want: common.ErrValidationFailed},
		{name: "conflict", status: http.StatusConflict, want: common.ErrCheckInConflict},
		{name: "server error", status: http.StatusBadGateway, want: common.ErrAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.link(t)
			ctx := context.Background()

			err := e.exec.Do(ctx, "probe", func(ctx context.Context, token string) error {
				return httpErr(tt.status, "")
			})
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, e.store.HasCredentials(ctx), "only 401 touches credentials")
		})
	}
}

func TestExecutor_ConflictKeepsHTTPError(t *testing.T) {
	e := newEnv(t)
	e.link(t)

	err := e.exec.Do(context.Background(), "checkin", func(ctx context.Context, token string) error {
		return httpErr(http.StatusConflict, `{"expires_at":"2024-03-01T12:02:00Z"}`)
	})

	var herr *trakt.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.JSONEq(t, `{"expires_at":"2024-03-01T12:02:00Z"}`, string(herr.Body))
}

func TestExecutor_TransportFailureWhileGoingOffline(t *testing.T) {
	e := newEnv(t)
	e.link(t)

	err := e.exec.Do(context.Background(), "probe", func(ctx context.Context, token string) error {
		e.net.online = false
		return errors.New("dial tcp: connection refused")
	})
	assert.ErrorIs(t, err, common.ErrOffline)
	assert.Equal(t, 1, e.net.checks)
}

func TestExecutor_TransportFailureWhileOnline(t *testing.T) {
	e := newEnv(t)
	e.link(t)

	err := e.exec.Do(context.Background(), "probe", func(ctx context.Context, token string) error {
		return errors.New("unexpected EOF")
	})
	assert.ErrorIs(t, err, common.ErrAPI)
}
