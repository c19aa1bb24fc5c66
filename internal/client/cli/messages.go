package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sgtrakt/internal/client/callback"
	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/services"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
)

// messageFor turns an error into the one line the user sees for it.
func messageFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, common.ErrOffline):
		return "You are offline. Try again once trakt is reachable."
	case errors.Is(err, common.ErrUnauthorized):
		return "Your trakt account is not connected or its authorization expired. Run 'connect'."
	case errors.Is(err, common.ErrAccountLocked):
		return "Your trakt account is locked. Contact trakt support to unlock it."
	case errors.Is(err, common.ErrValidationFailed):
		return fmt.Sprintf("trakt did not accept the input (%v).", err)
	case errors.Is(err, common.ErrNotFound):
		return "trakt does not know this item."
	case errors.Is(err, common.ErrStateMismatch):
		return "The authorization response could not be verified and was discarded. Run 'connect' to try again."
	case errors.Is(err, common.ErrMissingCode):
		return "trakt did not send an authorization code. Run 'connect' to try again."
	case errors.Is(err, common.ErrAuth):
		return "Could not link your trakt account. Run 'connect' to try again."
	case errors.Is(err, common.ErrStorage):
		return "Could not save your trakt credentials locally."
	case errors.Is(err, common.ErrAPI):
		return "trakt is not available right now. Try again later."
	case errors.Is(err, services.ErrNoPendingAction):
		return "No blocked check-in with this id. It may have expired."
	case errors.Is(err, callback.ErrNotRedirect):
		return "That is not the address trakt redirected you to."
	}
	return fmt.Sprintf("Error: %v", err)
}

func waitText(p events.CheckInBlockedPayload) string {
	if !p.WaitKnown {
		return "Another check-in is in progress."
	}
	if p.WaitSeconds < 60 {
		return fmt.Sprintf("Another check-in is in progress for %d more seconds.", p.WaitSeconds)
	}
	return fmt.Sprintf("Another check-in is in progress for about %d more minutes.", (p.WaitSeconds+59)/60)
}

// describe renders ev for the terminal. ok is false for events that are not
// shown to the user.
func describe(ev events.Event) (string, bool) {
	switch p := ev.Payload.(type) {
	case events.AuthResult:
		if ev.Type == events.AuthSucceeded {
			return fmt.Sprintf("Linked trakt account %s.", p.Username), true
		}
		return messageFor(p.Err), true
	case events.CheckInBlockedPayload:
		id := p.Action.ID.String()
		return fmt.Sprintf("%s Run 'cancel %s' to stop it and check in to %s, or 'wait %s' to leave it running.",
			waitText(p), id, p.Action.Title, id), true
	case events.CheckInDone:
		return p.Message, true
	case events.ActionResult:
		return p.Message, true
	case events.Failure:
		return messageFor(p.Err), true
	}
	return "", false
}

var shownEvents = []events.Type{
	events.AuthSucceeded,
	events.AuthFailed,
	events.CheckInSucceeded,
	events.CheckInBlocked,
	events.CheckInCompleted,
	events.CommentPosted,
	events.Rated,
	events.ActionFailed,
}

// subscribe prints user-facing events and logs the rest.
func (a *App) subscribe() error {
	show := func(ctx context.Context, ev events.Event) error {
		if msg, ok := describe(ev); ok {
			a.println(msg)
		}
		return nil
	}
	for _, t := range shownEvents {
		id, err := a.bus.Subscribe(t, show)
		if err != nil {
			return err
		}
		a.subs = append(a.subs, id)
	}

	note := func(ctx context.Context, ev events.Event) error {
		a.log.Info(ctx, "event", "type", string(ev.Type))
		return nil
	}
	for _, t := range []events.Type{events.CredentialsInvalidated, events.TokenRefreshed, events.SyncRequested} {
		id, err := a.bus.Subscribe(t, note)
		if err != nil {
			return err
		}
		a.subs = append(a.subs, id)
	}
	return nil
}
