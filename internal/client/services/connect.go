package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
)

// Connector turns an authorization code into a linked account and keeps the
// tokens fresh afterwards.
type Connector struct {
	api   TraktAPI
	store CredentialStore
	net   Connectivity
	exec  *Executor
	bus   Publisher
	log   logging.Logger
}

func NewConnector(api TraktAPI, store CredentialStore, net Connectivity, exec *Executor, bus Publisher, log logging.Logger) *Connector {
	return &Connector{
		api:   api,
		store: store,
		net:   net,
		exec:  exec,
		bus:   bus,
		log:   log.With("module", "connect"),
	}
}

// Exchange links the account for code. On any failure after tokens were
// stored the store is left unlinked, never with a partial token set.
func (c *Connector) Exchange(ctx context.Context, code string) (models.Credentials, error) {
	if !c.net.Online(ctx) {
		return models.Credentials{}, fmt.Errorf("connect: %w", common.ErrOffline)
	}

	tok, err := c.api.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Credentials{}, err
		}
		if errors.Is(err, trakt.ErrIncompleteToken) {
			c.log.Error(ctx, "token response missing fields", "error", err)
		} else {
			c.log.Warn(ctx, "token exchange failed", "error", err)
		}
		return models.Credentials{}, fmt.Errorf("connect: %w", common.ErrAuth)
	}

	// A new link may be a different account, so drop the merge state and
	// let the next sync reconcile everything.
	if err := c.store.ResetMergeFlags(ctx); err != nil {
		return models.Credentials{}, fmt.Errorf("connect: reset merge flags: %w: %v", common.ErrStorage, err)
	}

	if err := c.store.StoreAccessToken(ctx, tok.AccessToken); err != nil {
		return models.Credentials{}, fmt.Errorf("connect: store access token: %w: %v", common.ErrStorage, err)
	}

	if !c.store.StoreRefreshData(ctx, tok.RefreshToken, tok.ExpiresIn) {
		if err := c.store.RemoveAccessToken(ctx); err != nil {
			c.log.Error(ctx, "failed to roll back access token", "error", err)
		}
		return models.Credentials{}, fmt.Errorf("connect: store refresh data: %w", common.ErrStorage)
	}

	var settings *trakt.UserSettings
	err = c.exec.Do(ctx, "fetch user settings", func(ctx context.Context, accessToken string) error {
		var err error
		settings, err = c.api.UserSettings(ctx, accessToken)
		return err
	})
	if err != nil {
		c.unlink(ctx)
		switch {
		case errors.Is(err, common.ErrUnauthorized):
			return models.Credentials{}, fmt.Errorf("connect: fresh token rejected: %w", common.ErrAuth)
		case errors.Is(err, common.ErrAccountLocked), errors.Is(err, common.ErrOffline), errors.Is(err, context.Canceled):
			return models.Credentials{}, fmt.Errorf("connect: %w", err)
		}
		// 404, 422 and 409 mean nothing specific for this endpoint.
		return models.Credentials{}, fmt.Errorf("connect: fetch user settings: %w: %v", common.ErrAPI, err)
	}

	username := settings.User.Username
	if username == "" {
		c.unlink(ctx)
		c.log.Error(ctx, "user settings without username")
		return models.Credentials{}, fmt.Errorf("connect: %w: %w", common.ErrAPI, common.ErrMalformedResponse)
	}

	if err := c.store.StoreUsername(ctx, username, settings.User.Name); err != nil {
		c.unlink(ctx)
		return models.Credentials{}, fmt.Errorf("connect: store username: %w: %v", common.ErrStorage, err)
	}

	creds, err := c.store.Load(ctx)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("connect: %w: %v", common.ErrStorage, err)
	}

	c.log.Info(ctx, "trakt account linked", "username", username)
	c.bus.Publish(ctx, events.New(events.SyncRequested, nil))

	return creds, nil
}

func (c *Connector) unlink(ctx context.Context) {
	if err := c.store.RemoveCredentials(ctx); err != nil {
		c.log.Error(ctx, "failed to clear credentials", "error", err)
	}
}

// Refresh trades the stored refresh token for a new token set.
func (c *Connector) Refresh(ctx context.Context) error {
	refreshToken := c.store.RefreshToken(ctx)
	if refreshToken == "" {
		return fmt.Errorf("refresh: %w", common.ErrUnauthorized)
	}
	if !c.net.Online(ctx) {
		return fmt.Errorf("refresh: %w", common.ErrOffline)
	}

	tok, err := c.api.Refresh(ctx, refreshToken)
	if err != nil {
		switch trakt.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusBadRequest:
			if ierr := c.store.SetCredentialsInvalid(ctx); ierr != nil {
				c.log.Error(ctx, "failed to invalidate credentials", "error", ierr)
			}
			c.bus.Publish(ctx, events.New(events.CredentialsInvalidated, nil))
			return fmt.Errorf("refresh: %w", common.ErrUnauthorized)
		case http.StatusLocked:
			return fmt.Errorf("refresh: %w", common.ErrAccountLocked)
		}
		if errors.Is(err, trakt.ErrIncompleteToken) {
			return fmt.Errorf("refresh: %w: %w", common.ErrAPI, common.ErrMalformedResponse)
		}
		if !c.net.Check(ctx) {
			return fmt.Errorf("refresh: %w", common.ErrOffline)
		}
		return fmt.Errorf("refresh: %w: %v", common.ErrAPI, err)
	}

	if err := c.store.ReplaceTokens(ctx, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn); err != nil {
		return fmt.Errorf("refresh: %w: %v", common.ErrStorage, err)
	}

	c.log.Info(ctx, "access token refreshed")
	c.bus.Publish(ctx, events.New(events.TokenRefreshed, nil))
	return nil
}

// Disconnect forgets the linked account.
func (c *Connector) Disconnect(ctx context.Context) error {
	if err := c.store.RemoveCredentials(ctx); err != nil {
		return fmt.Errorf("disconnect: %w: %v", common.ErrStorage, err)
	}
	return nil
}
