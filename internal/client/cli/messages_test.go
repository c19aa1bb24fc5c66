package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: fmt.Errorf("checkin: %w", common.ErrOffline), want: "You are offline"},
		{err: common.ErrUnauthorized, want: "Run 'connect'"},
		{err: common.ErrAccountLocked, want: "locked"},
		{err: fmt.Errorf("comment needs at least 5 words: %w", common.ErrValidationFailed), want: "at least 5 words"},
		{err: common.ErrNotFound, want: "does not know this item"},
		{err: common.ErrStateMismatch, want: "could not be verified"},
		{err: common.ErrMissingCode, want: "authorization code"},
		{err: fmt.Errorf("connect: %w: %w", common.ErrAPI, common.ErrMalformedResponse), want: "not available"},
		{err: context.Canceled, want: "Cancelled."},
		{err: errors.New("boom"), want: "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Contains(t, messageFor(tt.err), tt.want)
		})
	}
}

func TestDescribe(t *testing.T) {
	action := models.NewCheckInAction(models.ItemMovie, 7, "Heat", "")

	msg, ok := describe(events.New(events.CheckInBlocked, events.CheckInBlockedPayload{Action: action, WaitSeconds: 125, WaitKnown: true}))
	assert.True(t, ok)
	assert.Contains(t, msg, "about 3 more minutes")
	assert.Contains(t, msg, "cancel "+action.ID.String())
	assert.Contains(t, msg, "wait "+action.ID.String())

	msg, ok = describe(events.New(events.CheckInBlocked, events.CheckInBlockedPayload{Action: action}))
	assert.True(t, ok)
	assert.Contains(t, msg, "Another check-in is in progress.")

	msg, ok = describe(events.New(events.AuthSucceeded, events.AuthResult{Username: "alice"}))
	assert.True(t, ok)
	assert.Equal(t, "Linked trakt account alice.", msg)

	_, ok = describe(events.New(events.SyncRequested, nil))
	assert.False(t, ok)
}
