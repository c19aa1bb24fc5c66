package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/credentials"
	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/pending"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/settings"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/titles"
	"github.com/dmitrijs2005/sgtrakt/internal/client/storage"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers trakt calls from its fields and records what was called.
type fakeAPI struct {
	mu sync.Mutex

	token       *trakt.Token
	exchangeErr error
	refreshTok  *trakt.Token
	refreshErr  error

	settings    *trakt.UserSettings
	settingsErr error

	// checkInErrs are returned by successive CheckIn calls; nil means success.
	checkInErrs []error
	checkInResp *trakt.CheckInResponse
	deleteErr   error

	commentErr error
	ratingsRes *trakt.RatingsResponse
	ratingsErr error

	exchangeCodes []string
	checkIns      []trakt.CheckInRequest
	deletes       int
	comments      []trakt.CommentRequest
	tokensSeen    []string
}

func (f *fakeAPI) AuthCodeURL(state string) string {
	return "https://trakt.test/oauth/authorize?state=" + state
}

func (f *fakeAPI) Exchange(ctx context.Context, code string) (*trakt.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCodes = append(f.exchangeCodes, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*trakt.Token, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshTok, nil
}

func (f *fakeAPI) UserSettings(ctx context.Context, accessToken string) (*trakt.UserSettings, error) {
	f.mu.Lock()
	f.tokensSeen = append(f.tokensSeen, accessToken)
	f.mu.Unlock()
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	return f.settings, nil
}

func (f *fakeAPI) CheckIn(ctx context.Context, accessToken string, req trakt.CheckInRequest) (*trakt.CheckInResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkIns = append(f.checkIns, req)
	if len(f.checkInErrs) > 0 {
		err := f.checkInErrs[0]
		f.checkInErrs = f.checkInErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.checkInResp != nil {
		return f.checkInResp, nil
	}
	return &trakt.CheckInResponse{}, nil
}

func (f *fakeAPI) DeleteCheckIn(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return f.deleteErr
}

func (f *fakeAPI) PostComment(ctx context.Context, accessToken string, req trakt.CommentRequest) (*trakt.CommentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, req)
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return &trakt.CommentResponse{ID: 1, Comment: req.Comment}, nil
}

func (f *fakeAPI) AddRatings(ctx context.Context, accessToken string, req trakt.RatingsRequest) (*trakt.RatingsResponse, error) {
	if f.ratingsErr != nil {
		return nil, f.ratingsErr
	}
	if f.ratingsRes != nil {
		return f.ratingsRes, nil
	}
	return &trakt.RatingsResponse{}, nil
}

type fakeNet struct {
	online bool
	checks int
}

func (n *fakeNet) Online(ctx context.Context) bool { return n.online }

func (n *fakeNet) Check(ctx context.Context) bool {
	n.checks++
	return n.online
}

// recorder is a synchronous Publisher.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, ev events.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) last(t events.Type) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

type env struct {
	api      *fakeAPI
	net      *fakeNet
	bus      *recorder
	store    *credentials.Store
	settings *settings.SQLiteRepository
	titles   *titles.SQLiteRepository
	pending  *pending.Store
	exec     *Executor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "sgtrakt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		api: &fakeAPI{
			token:    &trakt.Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 7200},
			settings: &trakt.UserSettings{User: trakt.User{Username: "alice", Name: "Alice"}},
		},
		net:      &fakeNet{online: true},
		bus:      &recorder{},
		store:    credentials.NewStore(db, logging.Nop()),
		settings: settings.NewSQLiteRepository(db),
		titles:   titles.NewSQLiteRepository(db),
		pending:  pending.NewStore(time.Minute),
	}
	t.Cleanup(e.pending.Stop)
	e.exec = NewExecutor(e.store, e.net, e.bus, logging.Nop())
	return e
}

func (e *env) connector() *Connector {
	return NewConnector(e.api, e.store, e.net, e.exec, e.bus, logging.Nop())
}

func (e *env) link(t *testing.T) {
	t.Helper()
	_, err := e.connector().Exchange(context.Background(), "seed")
	require.NoError(t, err)
	e.bus.events = nil
}

func httpErr(status int, body string) error {
	return &trakt.HTTPError{StatusCode: status, Body: []byte(body), Endpoint: "/test"}
}
