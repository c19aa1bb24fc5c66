package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/config"
	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noBrowser struct{}

func (noBrowser) Open(string) error { return errors.New("no display") }

// fakeTrakt serves the handful of endpoints the client uses. The first
// check-in conflicts, later ones succeed.
type fakeTrakt struct {
	mu       sync.Mutex
	checkIns int
	deletes  int
}

func (f *fakeTrakt) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/oauth/token":
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":7776000,"token_type":"bearer"}`)
	case r.URL.Path == "/users/settings":
		_, _ = io.WriteString(w, `{"user":{"username":"alice","name":"Alice"}}`)
	case r.URL.Path == "/checkin" && r.Method == http.MethodPost:
		f.checkIns++
		if f.checkIns == 1 {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"expires_at":"`+time.Now().Add(10*time.Minute).UTC().Format(time.RFC3339)+`"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1,"movie":{"title":"Heat","year":1995,"ids":{"trakt":7}}}`)
	case r.URL.Path == "/checkin" && r.Method == http.MethodDelete:
		f.deletes++
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/comments":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1,"comment":"ok"}`)
	case r.URL.Path == "/sync/ratings":
		_, _ = io.WriteString(w, `{"added":{"movies":1,"episodes":0},"not_found":{"movies":[],"episodes":[]}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newTestApp(t *testing.T) (*App, *syncBuffer, *fakeTrakt) {
	t.Helper()
	ft := &fakeTrakt{}
	ts := httptest.NewServer(ft)
	t.Cleanup(ts.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ClientID = "cid"
	cfg.ClientSecret = "secret"
	cfg.APIBaseURL = ts.URL
	cfg.AuthBaseURL = ts.URL
	cfg.CallbackAddr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "sgtrakt.db")
	cfg.RateLimit = 1000
	cfg.RateBurst = 100

	out := &syncBuffer{}
	a, err := build(context.Background(), cfg, logging.Nop(), noBrowser{}, bufio.NewReader(strings.NewReader("")), out)
	require.NoError(t, err)
	require.NoError(t, a.subscribe())
	t.Cleanup(a.close)

	return a, out, ft
}

func waitFor(t *testing.T, out *syncBuffer, text string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), text) },
		3*time.Second, 10*time.Millisecond, "output never contained %q:\n%s", text, out.String())
}

func authURLFrom(t *testing.T, out string) *url.URL {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "/oauth/authorize") {
			u, err := url.Parse(strings.TrimSpace(line))
			require.NoError(t, err)
			return u
		}
	}
	t.Fatalf("no authorize URL in output:\n%s", out)
	return nil
}

func connect(t *testing.T, a *App, out *syncBuffer) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.Connect(ctx))

	u := authURLFrom(t, out.String())
	redirect := a.config.RedirectURI + "?code=ABC123&state=" + u.Query().Get("state")
	require.NoError(t, a.Callback(ctx, []string{redirect}))
	waitFor(t, out, "Linked trakt account alice.")
}

func TestApp_ConnectWithPastedRedirect(t *testing.T) {
	a, out, _ := newTestApp(t)

	connect(t, a, out)

	assert.Contains(t, out.String(), "Could not open a browser")
	assert.True(t, a.isLinked())

	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, out.String(), "Linked to trakt as alice (Alice).")
}

func TestApp_CallbackRejectsForeignURL(t *testing.T) {
	a, out, _ := newTestApp(t)
	require.NoError(t, a.Connect(context.Background()))

	require.NoError(t, a.Callback(context.Background(), []string{"https://example.com/?code=x&state=y"}))
	waitFor(t, out, "That is not the address trakt redirected you to.")
	assert.False(t, a.isLinked())
}

func TestApp_CallbackStateMismatch(t *testing.T) {
	a, out, _ := newTestApp(t)
	require.NoError(t, a.Connect(context.Background()))

	require.NoError(t, a.Callback(context.Background(), []string{a.config.RedirectURI + "?code=x&state=forged"}))
	waitFor(t, out, "could not be verified")
	assert.False(t, a.isLinked())
}

func TestApp_CheckInConflictThenCancel(t *testing.T) {
	a, out, ft := newTestApp(t)
	connect(t, a, out)
	ctx := context.Background()

	require.NoError(t, a.CheckIn(ctx, []string{"movie", "7", "hello"}))
	waitFor(t, out, "Another check-in is in progress")

	pending := a.checkins.Pending()
	require.Len(t, pending, 1)
	require.NoError(t, a.Cancel(ctx, []string{pending[0].ID.String()}))
	waitFor(t, out, "Checked in: Heat")

	ft.mu.Lock()
	defer ft.mu.Unlock()
	assert.Equal(t, 2, ft.checkIns)
	assert.Equal(t, 1, ft.deletes)
}

func TestApp_CheckInConflictThenWait(t *testing.T) {
	a, out, ft := newTestApp(t)
	connect(t, a, out)
	ctx := context.Background()

	require.NoError(t, a.CheckIn(ctx, []string{"movie", "7"}))
	waitFor(t, out, "Another check-in is in progress")

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Blocked check-ins: 1")

	pending := a.checkins.Pending()
	require.Len(t, pending, 1)
	require.NoError(t, a.Wait(ctx, []string{pending[0].ID.String()}))
	waitFor(t, out, "Not checked in")

	ft.mu.Lock()
	defer ft.mu.Unlock()
	assert.Equal(t, 1, ft.checkIns)
}

func TestApp_CommandsRequireLink(t *testing.T) {
	a, out, _ := newTestApp(t)

	require.NoError(t, a.CheckIn(context.Background(), []string{"episode", "1"}))
	waitFor(t, out, "Run 'connect'.")
}

func TestApp_CommentAndRate(t *testing.T) {
	a, out, _ := newTestApp(t)
	connect(t, a, out)
	ctx := context.Background()

	require.NoError(t, a.AddTitle(ctx, []string{"movie", "7", "Heat"}))
	require.NoError(t, a.Comment(ctx, []string{"movie", "7", "--spoiler", "the", "diner", "scene", "is", "perfect"}))
	waitFor(t, out, "Comment posted: Heat")

	require.NoError(t, a.Rate(ctx, []string{"movie", "7", "10"}))
	waitFor(t, out, "Rated Heat: 10/10")

	require.NoError(t, a.Comment(ctx, []string{"movie", "7", "too", "short"}))
	waitFor(t, out, "trakt did not accept the input")
}

func TestApp_Usage(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	var usage usageError
	assert.ErrorAs(t, a.CheckIn(ctx, []string{"show", "1"}), &usage)
	assert.ErrorAs(t, a.Rate(ctx, []string{"movie", "7", "ten"}), &usage)
	assert.ErrorAs(t, a.Comment(ctx, []string{"movie", "7", "--spoiler"}), &usage)
	assert.ErrorAs(t, a.Cancel(ctx, []string{"not-a-uuid"}), &usage)
	assert.ErrorAs(t, a.AddTitle(ctx, []string{"movie", "x", "Heat"}), &usage)
}

func TestApp_Titles(t *testing.T) {
	a, out, _ := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.Titles(ctx))
	assert.Contains(t, out.String(), "No titles stored.")

	require.NoError(t, a.AddTitle(ctx, []string{"episode", "42", "Severance", "Pilot"}))
	require.NoError(t, a.Titles(ctx))
	assert.Contains(t, out.String(), "Severance Pilot")
}

func TestApp_DisconnectAndDismiss(t *testing.T) {
	a, out, _ := newTestApp(t)
	connect(t, a, out)
	ctx := context.Background()

	require.NoError(t, a.Disconnect(ctx))
	assert.False(t, a.isLinked())

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.Dismiss(ctx))
	assert.Contains(t, out.String(), "Authorization cancelled.")

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Not linked to trakt.")
}

func TestApp_Refresh(t *testing.T) {
	a, out, _ := newTestApp(t)
	connect(t, a, out)

	require.NoError(t, a.Refresh(context.Background()))
	waitFor(t, out, "Access token refreshed.")
}

func TestGetStatus(t *testing.T) {
	a, out, _ := newTestApp(t)
	assert.Equal(t, "", a.getStatus())

	a.setMode(true)
	assert.Equal(t, "(online)", a.getStatus())

	connect(t, a, out)
	assert.Equal(t, "(alice online)", a.getStatus())
}

func TestAskClientCredentials(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	cfg := &config.Config{}
	var out bytes.Buffer
	require.NoError(t, askClientCredentials(cfg, bufio.NewReader(strings.NewReader("my-id\n")), &out))
	assert.Equal(t, "my-id", cfg.ClientID)
	assert.Equal(t, "s3cret", cfg.ClientSecret)
}

func TestAskClientCredentials_Empty(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte{}, nil }

	cfg := &config.Config{ClientID: "id"}
	var out bytes.Buffer
	assert.Error(t, askClientCredentials(cfg, bufio.NewReader(strings.NewReader("")), &out))
}

// slowWriter makes every printed line take a while, like a busy terminal.
type slowWriter struct {
	syncBuffer
}

func (s *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(20 * time.Millisecond)
	return s.syncBuffer.Write(p)
}

func TestApp_CloseShowsResultsStillInFlight(t *testing.T) {
	a, _, _ := newTestApp(t)
	out := &slowWriter{}
	a.out = out

	for i := 0; i < 5; i++ {
		a.bus.Publish(context.Background(), events.New(events.CheckInSucceeded, events.CheckInDone{Message: fmt.Sprintf("Checked in: part %d", i)}))
	}
	a.close()

	for i := 0; i < 5; i++ {
		assert.Contains(t, out.String(), fmt.Sprintf("Checked in: part %d", i))
	}
}
