package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/callback"
	"github.com/dmitrijs2005/sgtrakt/internal/client/config"
	"github.com/dmitrijs2005/sgtrakt/internal/client/connectivity"
	"github.com/dmitrijs2005/sgtrakt/internal/client/credentials"
	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/pending"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/titles"
	"github.com/dmitrijs2005/sgtrakt/internal/client/scheduler"
	"github.com/dmitrijs2005/sgtrakt/internal/client/services"
	"github.com/dmitrijs2005/sgtrakt/internal/client/storage"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/filex"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	store     *credentials.Store
	titles    titles.Repository
	bus       *events.Bus
	pending   *pending.Store
	monitor   *connectivity.Monitor
	auth      *services.AuthFlow
	connector *services.Connector
	checkins  *services.CheckInService
	comments  *services.CommentService
	refresher *scheduler.TokenRefresher
	listener  *callback.Listener

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex

	modeMu sync.Mutex
	mode   Mode

	subs []uuid.UUID
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// NewApp builds the application from c, asking on the terminal for the trakt
// client credentials when the configuration has none.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log, err := logging.New(os.Stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	if err := askClientCredentials(c, reader, os.Stdout); err != nil {
		return nil, err
	}

	return build(ctx, c, log, callback.NewBrowserLauncher(), reader, os.Stdout)
}

func askClientCredentials(c *config.Config, reader *bufio.Reader, w io.Writer) error {
	if c.ClientID == "" {
		id, err := GetRequiredText(reader, "Enter trakt client id", w)
		if err != nil {
			return fmt.Errorf("read client id: %w", err)
		}
		c.ClientID = id
	}

	if c.ClientSecret == "" {
		secret, err := GetSecret("Enter trakt client secret", w)
		if err != nil {
			return fmt.Errorf("read client secret: %w", err)
		}
		c.ClientSecret = string(secret)
		common.WipeByteArray(secret)
	}

	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("trakt client id and secret are required")
	}
	return nil
}

func build(ctx context.Context, c *config.Config, log logging.Logger, launcher services.Launcher, reader *bufio.Reader, out io.Writer) (*App, error) {
	path, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, path)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", path, "error", err)
		return nil, err
	}

	api := trakt.NewClient(c.ClientID, c.ClientSecret, c.RedirectURI,
		trakt.WithBaseURL(c.APIBaseURL),
		trakt.WithAuthBaseURL(c.AuthBaseURL),
		trakt.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		trakt.WithRateLimit(c.RateLimit, c.RateBurst),
		trakt.WithLogger(log),
	)

	probeClient := &http.Client{Timeout: 3 * time.Second}

	a := &App{
		config:  c,
		log:     log,
		db:      db,
		store:   credentials.NewStore(db, log),
		titles:  titles.NewSQLiteRepository(db),
		bus:     events.NewBus(log),
		pending: pending.NewStore(c.PendingTTL),
		monitor: connectivity.NewMonitor(connectivity.HTTPProbe(probeClient, api.BaseURL()), c.OnlineCheckInterval, log),
		reader:  reader,
		out:     out,
	}

	exec := services.NewExecutor(a.store, a.monitor, a.bus, log)
	a.connector = services.NewConnector(api, a.store, a.monitor, exec, a.bus, log)
	a.auth = services.NewAuthFlow(c.RedirectURI, api, a.store, a.connector, launcher, a.bus, log)
	a.checkins = services.NewCheckInService(api, a.store, a.monitor, exec, a.pending, a.titles, a.bus, log)
	a.comments = services.NewCommentService(api, exec, a.titles, a.bus, log)
	a.refresher = scheduler.NewTokenRefresher(a.store, a.connector, c.TokenRefreshWindow, log)
	a.listener = callback.NewListener(c.CallbackAddr, callback.RoutePath(c.RedirectURI), a.auth, log)

	return a, nil
}

// Run starts the background workers and blocks in the REPL until the user
// exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.close()
	defer cancel()

	if err := a.subscribe(); err != nil {
		return err
	}

	if err := a.listener.Start(ctx); err != nil {
		a.log.Warn(ctx, "callback listener unavailable, paste the redirect with 'callback <url>'", "error", err)
	}

	if err := a.refresher.Start(ctx, a.config.TokenRefreshSpec); err != nil {
		return err
	}

	if ok, err := a.auth.Restore(ctx); err != nil {
		a.log.Error(ctx, "failed to restore pending authorization", "error", err)
	} else if ok {
		a.println("An authorization is still pending. Approve it in the browser, paste the redirect with 'callback <url>', or run 'dismiss'.")
	}

	go a.monitor.Watch(ctx, a.config.OnlineCheckInterval, a.setMode)

	a.println("sgtrakt (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	a.wg.Wait()
	return nil
}

// drainTimeout bounds how long close waits for results still being printed.
const drainTimeout = 2 * time.Second

func (a *App) close() {
	a.closeOnce.Do(func() {
		a.refresher.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := a.bus.Drain(ctx); err != nil {
			a.log.Warn(ctx, "event handlers still running at shutdown", "error", err)
		}

		for _, id := range a.subs {
			a.bus.Unsubscribe(id)
		}
		a.pending.Stop()
		a.bus.Close()
		if err := a.db.Close(); err != nil {
			a.log.Error(context.Background(), "failed to close database", "error", err)
		}
	})
}

func (a *App) setMode(online bool) {
	mode := ModeOffline
	if online {
		mode = ModeOnline
	}

	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) getMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

// getStatus renders the prompt prefix, e.g. "(alice online)".
func (a *App) getStatus() string {
	s := ""
	if u := a.store.Username(context.Background()); u != "" {
		s = u + " "
	}
	if m := a.getMode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) isLinked() bool {
	return a.store.HasCredentials(context.Background())
}

// println serializes output from the REPL and from event handlers.
func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

// runAsync runs fn on its own goroutine. Run waits for these before
// returning.
func (a *App) runAsync(ctx context.Context, fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(ctx)
	}()
}
