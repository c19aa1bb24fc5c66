// Package credentials persists the linked trakt account in the private
// settings store.
//
// The three token fields (access token, refresh token, expiry) are either all
// present or treated as absent. Every write runs under the store mutex and
// inside a single SQLite transaction, so writers replace whole field groups
// and never interleave.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/settings"
	"github.com/dmitrijs2005/sgtrakt/internal/dbx"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
)

const (
	keyAccessToken  = "trakt.access_token"
	keyRefreshToken = "trakt.refresh_token"
	keyExpiry       = "trakt.expiry"
	keyUsername     = "trakt.username"
	keyDisplayName  = "trakt.display_name"
	keyInvalid      = "trakt.invalid"

	keyAuthState    = "oauth.state"
	keyAuthIssuedAt = "oauth.state_issued_at"

	keyShowsMerged  = "sync.shows_merged"
	keyMoviesMerged = "sync.movies_merged"
)

var (
	tokenKeys    = []string{keyAccessToken, keyRefreshToken, keyExpiry}
	identityKeys = []string{keyUsername, keyDisplayName, keyInvalid}
)

var ErrEmptyValue = errors.New("empty value")

type Store struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time

	mu sync.Mutex
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	return &Store{db: db, log: log.With("module", "credentials"), now: time.Now}
}

// update runs fn against a transactional settings repository under the mutex.
func (s *Store) update(ctx context.Context, fn func(ctx context.Context, repo settings.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, settings.NewSQLiteRepository(tx))
	})
}

func (s *Store) read(ctx context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// one snapshot, so a field group is never read half old and half new
	all, err := settings.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := all[k]; len(v) > 0 {
			out[k] = string(v)
		}
	}
	return out, nil
}

// Load returns the stored credentials. A partial token set is returned as
// is; use Credentials.Linked or HasCredentials to decide if it is usable.
func (s *Store) Load(ctx context.Context) (models.Credentials, error) {
	v, err := s.read(ctx, append(append([]string{}, tokenKeys...), identityKeys...)...)
	if err != nil {
		return models.Credentials{}, err
	}

	c := models.Credentials{
		AccessToken:  v[keyAccessToken],
		RefreshToken: v[keyRefreshToken],
		Username:     v[keyUsername],
		DisplayName:  v[keyDisplayName],
		Invalid:      v[keyInvalid] == "1",
	}
	if raw, ok := v[keyExpiry]; ok {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.log.Warn(ctx, "unreadable token expiry, treating as absent", "error", err)
		} else {
			c.Expiry = time.Unix(sec, 0)
		}
	}
	return c, nil
}

// HasCredentials is true iff access token, refresh token and expiry are all
// present. Read errors count as "not linked".
func (s *Store) HasCredentials(ctx context.Context) bool {
	c, err := s.Load(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to read credentials", "error", err)
		return false
	}
	return c.Linked()
}

// AccessToken returns "" when no usable credentials are stored.
func (s *Store) AccessToken(ctx context.Context) string {
	c, err := s.Load(ctx)
	if err != nil || !c.Linked() {
		return ""
	}
	return c.AccessToken
}

func (s *Store) RefreshToken(ctx context.Context) string {
	c, err := s.Load(ctx)
	if err != nil || !c.Linked() {
		return ""
	}
	return c.RefreshToken
}

// Expiry returns the zero time when no usable credentials are stored.
func (s *Store) Expiry(ctx context.Context) time.Time {
	c, err := s.Load(ctx)
	if err != nil || !c.Linked() {
		return time.Time{}
	}
	return c.Expiry
}

// Username survives credential invalidation, so it may be set while the
// store is unlinked.
func (s *Store) Username(ctx context.Context) string {
	c, err := s.Load(ctx)
	if err != nil {
		return ""
	}
	return c.Username
}

// NeedsReconnect is true when the account was linked before and its tokens
// have since been invalidated.
func (s *Store) NeedsReconnect(ctx context.Context) bool {
	c, err := s.Load(ctx)
	if err != nil {
		return false
	}
	return !c.Linked() && c.Username != ""
}

func (s *Store) StoreAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("store access token: %w", ErrEmptyValue)
	}
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		return repo.Set(ctx, keyAccessToken, []byte(token))
	})
}

// StoreRefreshData persists the refresh token and the expiry derived from
// expiresIn. It returns false if nothing could be persisted, in which case
// the caller must roll back the access token it stored.
func (s *Store) StoreRefreshData(ctx context.Context, refreshToken string, expiresIn int64) bool {
	if refreshToken == "" || expiresIn < 1 {
		return false
	}
	expiry := s.now().Add(time.Duration(expiresIn) * time.Second).Unix()

	err := s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		if err := repo.Set(ctx, keyRefreshToken, []byte(refreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, keyExpiry, []byte(strconv.FormatInt(expiry, 10)))
	})
	if err != nil {
		s.log.Error(ctx, "failed to store refresh data", "error", err)
		return false
	}
	return true
}

// RemoveAccessToken drops only the access token.
func (s *Store) RemoveAccessToken(ctx context.Context) error {
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		return repo.Delete(ctx, keyAccessToken)
	})
}

// ReplaceTokens swaps all three token fields at once and clears the invalid
// mark. Used after a refresh-token grant.
func (s *Store) ReplaceTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64) error {
	if accessToken == "" || refreshToken == "" || expiresIn < 1 {
		return fmt.Errorf("replace tokens: %w", ErrEmptyValue)
	}
	expiry := s.now().Add(time.Duration(expiresIn) * time.Second).Unix()

	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		if err := repo.Set(ctx, keyAccessToken, []byte(accessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyRefreshToken, []byte(refreshToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyExpiry, []byte(strconv.FormatInt(expiry, 10))); err != nil {
			return err
		}
		return repo.Delete(ctx, keyInvalid)
	})
}

func (s *Store) StoreUsername(ctx context.Context, username, displayName string) error {
	if username == "" {
		return fmt.Errorf("store username: %w", ErrEmptyValue)
	}
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		if err := repo.Set(ctx, keyUsername, []byte(username)); err != nil {
			return err
		}
		if displayName == "" {
			return repo.Delete(ctx, keyDisplayName, keyInvalid)
		}
		if err := repo.Set(ctx, keyDisplayName, []byte(displayName)); err != nil {
			return err
		}
		return repo.Delete(ctx, keyInvalid)
	})
}

// RemoveCredentials clears tokens and identity. Calling it on an empty store
// is a no-op.
func (s *Store) RemoveCredentials(ctx context.Context) error {
	err := s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		return repo.Delete(ctx, append(append([]string{}, tokenKeys...), identityKeys...)...)
	})
	if err != nil {
		return fmt.Errorf("remove credentials: %w", err)
	}
	s.log.Info(ctx, "credentials removed")
	return nil
}

// SetCredentialsInvalid drops the tokens but keeps the username, so the user
// is asked to reconnect rather than connect.
func (s *Store) SetCredentialsInvalid(ctx context.Context) error {
	err := s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		if err := repo.Delete(ctx, tokenKeys...); err != nil {
			return err
		}
		return repo.Set(ctx, keyInvalid, []byte("1"))
	})
	if err != nil {
		return fmt.Errorf("invalidate credentials: %w", err)
	}
	s.log.Warn(ctx, "credentials marked invalid")
	return nil
}

// SaveAuthSession persists the pending OAuth state so a callback arriving
// after a restart can still be validated.
func (s *Store) SaveAuthSession(ctx context.Context, session models.AuthSession) error {
	if session.State == "" {
		return fmt.Errorf("save auth session: %w", ErrEmptyValue)
	}
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		if err := repo.Set(ctx, keyAuthState, []byte(session.State)); err != nil {
			return err
		}
		return repo.Set(ctx, keyAuthIssuedAt, []byte(strconv.FormatInt(session.IssuedAt.Unix(), 10)))
	})
}

// AuthSession returns the pending session, or nil if there is none.
func (s *Store) AuthSession(ctx context.Context) (*models.AuthSession, error) {
	v, err := s.read(ctx, keyAuthState, keyAuthIssuedAt)
	if err != nil {
		return nil, err
	}
	state, ok := v[keyAuthState]
	if !ok {
		return nil, nil
	}
	session := &models.AuthSession{State: state}
	if sec, err := strconv.ParseInt(v[keyAuthIssuedAt], 10, 64); err == nil {
		session.IssuedAt = time.Unix(sec, 0)
	}
	return session, nil
}

func (s *Store) ClearAuthSession(ctx context.Context) error {
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		return repo.Delete(ctx, keyAuthState, keyAuthIssuedAt)
	})
}

// ResetMergeFlags forgets that local data was merged with an account, which
// forces a full reconciliation on the next sync.
func (s *Store) ResetMergeFlags(ctx context.Context) error {
	return s.update(ctx, func(ctx context.Context, repo settings.Repository) error {
		return repo.Delete(ctx, keyShowsMerged, keyMoviesMerged)
	})
}
