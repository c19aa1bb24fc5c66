package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/labstack/echo/v4"
)

// Handler consumes the parameters of one redirect.
type Handler interface {
	HandleCallbackParams(ctx context.Context, code, state string) error
	HandleDenied(ctx context.Context, reason string) error
}

const (
	pageLinked   = "<html><body><h3>Account linked.</h3><p>You can close this window and return to sgtrakt.</p></body></html>"
	pageRejected = "<html><body><h3>Authorization failed.</h3><p>%s</p><p>Return to sgtrakt and run <code>connect</code> again.</p></body></html>"
)

// Listener is the loopback endpoint trakt redirects the browser to.
type Listener struct {
	addr    string
	path    string
	handler Handler
	log     logging.Logger

	e *echo.Echo
}

func NewListener(addr, path string, handler Handler, log logging.Logger) *Listener {
	l := &Listener{
		addr:    addr,
		path:    path,
		handler: handler,
		log:     log.With("module", "callback"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(path, l.serveCallback)
	l.e = e

	return l
}

// ServeHTTP lets the listener be mounted on any server, tests included.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.e.ServeHTTP(w, r)
}

func (l *Listener) serveCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if msg := c.QueryParam("error"); msg != "" {
		l.log.Warn(ctx, "authorization denied at trakt", "error", msg)
		if err := l.handler.HandleDenied(context.WithoutCancel(ctx), msg); err != nil {
			l.log.Debug(ctx, "denial reported to auth flow", "error", err)
		}
		return c.HTML(http.StatusOK, fmt.Sprintf(pageRejected, "trakt reported: "+html.EscapeString(msg)))
	}

	// The exchange must outlive the browser request.
	err := l.handler.HandleCallbackParams(context.WithoutCancel(ctx), c.QueryParam("code"), c.QueryParam("state"))
	switch {
	case err == nil:
		return c.HTML(http.StatusOK, pageLinked)
	case errors.Is(err, common.ErrStateMismatch):
		return c.HTML(http.StatusBadRequest, fmt.Sprintf(pageRejected, "The request could not be verified."))
	case errors.Is(err, common.ErrMissingCode):
		return c.HTML(http.StatusBadRequest, fmt.Sprintf(pageRejected, "No authorization code was received."))
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(pageRejected, "The account could not be linked."))
}

// Start binds the address and serves until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	l.e.Listener = ln

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.e.Shutdown(shutdownCtx); err != nil {
			l.log.Error(shutdownCtx, "callback listener shutdown failed", "error", err)
		}
	}()

	go func() {
		if err := l.e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error(ctx, "callback listener stopped", "error", err)
		}
	}()

	l.log.Info(ctx, "callback listener started", "addr", ln.Addr().String(), "path", l.path)
	return nil
}
