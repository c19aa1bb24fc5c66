package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/callback"
	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
)

// AuthState is the position of the authorization flow.
type AuthState string

const (
	AuthIdle             AuthState = "idle"
	AuthAwaitingCallback AuthState = "awaiting_callback"
	AuthValidating       AuthState = "validating"
	AuthExchangingToken  AuthState = "exchanging_token"
	AuthLinked           AuthState = "linked"
	AuthFailed           AuthState = "failed"
)

// FailureReason explains AuthFailed.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonStateMismatch FailureReason = "state_mismatch"
	ReasonMissingCode   FailureReason = "missing_code"
	ReasonExchange      FailureReason = "exchange_failed"
	ReasonDenied        FailureReason = "access_denied"
)

// Launcher shows the authorization page to the user.
type Launcher interface {
	Open(url string) error
}

// Exchanger is satisfied by *Connector.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (models.Credentials, error)
}

// LaunchResult tells the caller where the user has to go. Fallback is set
// when the launcher failed and the URL must be opened by hand, with the
// redirect pasted back.
type LaunchResult struct {
	URL      string
	Fallback bool
}

// AuthFlow drives one OAuth authorization-code attempt at a time:
// Idle -> AwaitingCallback -> Validating -> ExchangingToken -> Linked or Failed.
// Failed is terminal for the attempt; the user starts over with Launch.
type AuthFlow struct {
	redirectURI string

	api       TraktAPI
	store     CredentialStore
	exchanger Exchanger
	launcher  Launcher
	bus       Publisher
	log       logging.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  AuthState
	reason FailureReason
	cancel context.CancelFunc
}

func NewAuthFlow(redirectURI string, api TraktAPI, store CredentialStore, exchanger Exchanger, launcher Launcher, bus Publisher, log logging.Logger) *AuthFlow {
	return &AuthFlow{
		redirectURI: redirectURI,
		api:         api,
		store:       store,
		exchanger:   exchanger,
		launcher:    launcher,
		bus:         bus,
		log:         log.With("module", "auth"),
		now:         time.Now,
		state:       AuthIdle,
	}
}

// State returns the current state and, for AuthFailed, the reason.
func (f *AuthFlow) State() (AuthState, FailureReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.reason
}

func (f *AuthFlow) set(state AuthState, reason FailureReason) {
	f.mu.Lock()
	f.state, f.reason = state, reason
	f.mu.Unlock()
}

// Launch starts a new attempt with a fresh state nonce. The nonce is
// persisted before the URL is shown, so a callback arriving after a restart
// still validates. Any earlier pending attempt is superseded.
func (f *AuthFlow) Launch(ctx context.Context) (LaunchResult, error) {
	f.Cancel()

	nonce, err := common.NewStateNonce()
	if err != nil {
		return LaunchResult{}, fmt.Errorf("generate state: %w", err)
	}

	session := models.AuthSession{State: nonce, IssuedAt: f.now()}
	if err := f.store.SaveAuthSession(ctx, session); err != nil {
		return LaunchResult{}, fmt.Errorf("save auth session: %w: %v", common.ErrStorage, err)
	}

	res := LaunchResult{URL: f.api.AuthCodeURL(nonce)}
	f.set(AuthAwaitingCallback, ReasonNone)

	if f.launcher == nil {
		res.Fallback = true
		return res, nil
	}
	if err := f.launcher.Open(res.URL); err != nil {
		f.log.Warn(ctx, "browser launch failed, falling back to manual flow", "error", err)
		res.Fallback = true
	}
	return res, nil
}

// Restore picks up a session persisted by an earlier process. It reports
// whether a callback is now awaited.
func (f *AuthFlow) Restore(ctx context.Context) (bool, error) {
	session, err := f.store.AuthSession(ctx)
	if err != nil {
		return false, fmt.Errorf("load auth session: %w: %v", common.ErrStorage, err)
	}
	if session == nil {
		return false, nil
	}

	f.mu.Lock()
	if f.state == AuthIdle {
		f.state = AuthAwaitingCallback
	}
	f.mu.Unlock()

	f.log.Info(ctx, "resumed pending authorization", "issued_at", session.IssuedAt)
	return true, nil
}

// HandleCallback takes a redirect URL pasted by the user. URLs that do not
// point at the redirect URI are rejected with callback.ErrNotRedirect and do
// not touch the pending session.
func (f *AuthFlow) HandleCallback(ctx context.Context, rawURL string) error {
	p, err := callback.ParseRedirect(rawURL, f.redirectURI)
	if err != nil {
		return err
	}

	if p.Error != "" {
		return f.HandleDenied(ctx, p.Error)
	}

	return f.HandleCallbackParams(ctx, p.Code, p.State)
}

// HandleDenied ends the attempt after trakt redirected with an error
// parameter instead of a code, usually because the user refused consent.
func (f *AuthFlow) HandleDenied(ctx context.Context, reason string) error {
	f.log.Warn(ctx, "authorization denied at trakt", "error", reason)
	if cerr := f.store.ClearAuthSession(ctx); cerr != nil {
		f.log.Error(ctx, "failed to clear auth session", "error", cerr)
	}
	err := fmt.Errorf("authorization denied (%s): %w", reason, common.ErrAuth)
	f.fail(ctx, ReasonDenied, err)
	return err
}

// HandleCallbackParams validates the redirect parameters and, if they check
// out, exchanges the code. The stored session is consumed whatever the
// outcome.
func (f *AuthFlow) HandleCallbackParams(ctx context.Context, code, state string) error {
	f.set(AuthValidating, ReasonNone)

	session, err := f.store.AuthSession(ctx)
	if err != nil {
		f.fail(ctx, ReasonExchange, err)
		return fmt.Errorf("load auth session: %w: %v", common.ErrStorage, err)
	}
	if cerr := f.store.ClearAuthSession(ctx); cerr != nil {
		f.log.Error(ctx, "failed to clear auth session", "error", cerr)
	}

	if state == "" || session == nil || subtle.ConstantTimeCompare([]byte(state), []byte(session.State)) != 1 {
		f.log.Error(ctx, "oauth state mismatch, possible forged callback",
			"security", true,
			"event", "oauth_state_mismatch",
			"state_present", state != "",
			"session_present", session != nil)
		f.fail(ctx, ReasonStateMismatch, common.ErrStateMismatch)
		return common.ErrStateMismatch
	}

	if code == "" {
		f.fail(ctx, ReasonMissingCode, common.ErrMissingCode)
		return common.ErrMissingCode
	}

	exCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.state = AuthExchangingToken
	f.cancel = cancel
	f.mu.Unlock()
	defer cancel()

	creds, err := f.exchanger.Exchange(exCtx, code)

	f.mu.Lock()
	f.cancel = nil
	f.mu.Unlock()

	if exCtx.Err() != nil && errors.Is(err, context.Canceled) {
		// Cancelled by the user: drop the result silently.
		f.set(AuthIdle, ReasonNone)
		return context.Canceled
	}
	if err != nil {
		f.fail(ctx, ReasonExchange, err)
		return err
	}

	f.set(AuthLinked, ReasonNone)
	f.bus.Publish(ctx, events.New(events.AuthSucceeded, events.AuthResult{Username: creds.Username}))
	return nil
}

func (f *AuthFlow) fail(ctx context.Context, reason FailureReason, err error) {
	f.set(AuthFailed, reason)
	f.bus.Publish(ctx, events.New(events.AuthFailed, events.AuthResult{Err: err}))
}

// Cancel aborts an in-flight token exchange, if any.
func (f *AuthFlow) Cancel() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Dismiss is the user backing out: the pending session is discarded and the
// flow returns to Idle.
func (f *AuthFlow) Dismiss(ctx context.Context) error {
	f.Cancel()
	f.set(AuthIdle, ReasonNone)
	if err := f.store.ClearAuthSession(ctx); err != nil {
		return fmt.Errorf("clear auth session: %w: %v", common.ErrStorage, err)
	}
	return nil
}
