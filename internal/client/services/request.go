package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
)

// Executor runs authenticated trakt calls and maps their outcome onto the
// error taxonomy in package common. It is the only place where a 401 from
// trakt invalidates the stored credentials.
type Executor struct {
	store CredentialStore
	net   Connectivity
	bus   Publisher
	log   logging.Logger
}

func NewExecutor(store CredentialStore, net Connectivity, bus Publisher, log logging.Logger) *Executor {
	return &Executor{store: store, net: net, bus: bus, log: log.With("module", "request")}
}

// Call is one trakt request made with the given access token.
type Call func(ctx context.Context, accessToken string) error

// Do runs call with the current access token.
//
//   - offline: common.ErrOffline, call not made
//   - no credentials: common.ErrUnauthorized, call not made
//   - 401: credentials invalidated, common.ErrUnauthorized
//   - 423: common.ErrAccountLocked
//   - 404: common.ErrNotFound
//   - 422: common.ErrValidationFailed
//   - 409: common.ErrCheckInConflict, still wrapping the *trakt.HTTPError
//   - anything else: common.ErrAPI while online, common.ErrOffline otherwise
func (e *Executor) Do(ctx context.Context, op string, call Call) error {
	if !e.net.Online(ctx) {
		return fmt.Errorf("%s: %w", op, common.ErrOffline)
	}

	token := e.store.AccessToken(ctx)
	if token == "" {
		return fmt.Errorf("%s: %w", op, common.ErrUnauthorized)
	}

	err := call(ctx, token)
	if err == nil {
		return nil
	}
	return e.classify(ctx, op, err)
}

func (e *Executor) classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	switch trakt.StatusCode(err) {
	case http.StatusUnauthorized:
		if ierr := e.store.SetCredentialsInvalid(ctx); ierr != nil {
			e.log.Error(ctx, "failed to invalidate credentials", "op", op, "error", ierr)
		}
		e.bus.Publish(ctx, events.New(events.CredentialsInvalidated, nil))
		return fmt.Errorf("%s: %w", op, common.ErrUnauthorized)
	case http.StatusLocked:
		return fmt.Errorf("%s: %w", op, common.ErrAccountLocked)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", op, common.ErrValidationFailed)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w: %w", op, common.ErrCheckInConflict, err)
	}

	e.log.Warn(ctx, "trakt request failed", "op", op, "status", trakt.StatusCode(err), "error", err)

	if !e.net.Check(ctx) {
		return fmt.Errorf("%s: %w", op, common.ErrOffline)
	}
	return fmt.Errorf("%s: %w: %v", op, common.ErrAPI, err)
}
