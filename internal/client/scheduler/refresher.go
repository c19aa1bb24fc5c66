// Package scheduler runs periodic background jobs of the client. Today that
// is keeping the trakt access token fresh before it expires.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/robfig/cron/v3"
)

type TokenSource interface {
	HasCredentials(ctx context.Context) bool
	Expiry(ctx context.Context) time.Time
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

// TokenRefresher refreshes the token set when its expiry falls inside
// window. The check runs on a cron schedule.
type TokenRefresher struct {
	tokens    TokenSource
	refresher Refresher
	window    time.Duration
	log       logging.Logger
	now       func() time.Time

	cron *cron.Cron
}

func NewTokenRefresher(tokens TokenSource, refresher Refresher, window time.Duration, log logging.Logger) *TokenRefresher {
	l := log.With("module", "scheduler")
	cl := cronLogger{log: l}
	return &TokenRefresher{
		tokens:    tokens,
		refresher: refresher,
		window:    window,
		log:       l,
		now:       time.Now,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start schedules the check with spec and runs it once right away.
func (r *TokenRefresher) Start(ctx context.Context, spec string) error {
	if _, err := r.cron.AddFunc(spec, func() { r.run(ctx) }); err != nil {
		return fmt.Errorf("schedule token refresh %q: %w", spec, err)
	}
	r.cron.Start()
	go r.run(ctx)
	return nil
}

// Stop waits for a running check to finish.
func (r *TokenRefresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *TokenRefresher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Warn(ctx, "scheduled token refresh failed", "error", err)
	}
}

// RunOnce refreshes if needed and reports whether a refresh was attempted.
func (r *TokenRefresher) RunOnce(ctx context.Context) (bool, error) {
	if !r.tokens.HasCredentials(ctx) {
		return false, nil
	}

	left := r.tokens.Expiry(ctx).Sub(r.now())
	if left > r.window {
		r.log.Debug(ctx, "token still fresh", "expires_in", left.Round(time.Second).String())
		return false, nil
	}

	return true, r.refresher.Refresh(ctx)
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}
