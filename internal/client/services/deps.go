// Package services contains the application services of the sgtrakt client:
// account linking, the authenticated request wrapper, check-in arbitration,
// comments and ratings.
//
// Services never hold references to UI objects. Results of background work
// go out on the event bus; the caller also gets them as return values.
package services

import (
	"context"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/google/uuid"
)

// CredentialStore is the part of credentials.Store the services use.
type CredentialStore interface {
	Load(ctx context.Context) (models.Credentials, error)
	HasCredentials(ctx context.Context) bool
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string

	StoreAccessToken(ctx context.Context, token string) error
	StoreRefreshData(ctx context.Context, refreshToken string, expiresIn int64) bool
	RemoveAccessToken(ctx context.Context) error
	StoreUsername(ctx context.Context, username, displayName string) error
	ReplaceTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64) error
	RemoveCredentials(ctx context.Context) error
	SetCredentialsInvalid(ctx context.Context) error

	ResetMergeFlags(ctx context.Context) error

	SaveAuthSession(ctx context.Context, session models.AuthSession) error
	AuthSession(ctx context.Context) (*models.AuthSession, error)
	ClearAuthSession(ctx context.Context) error
}

// TraktAPI is the trakt.Client surface used by the services.
type TraktAPI interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*trakt.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*trakt.Token, error)
	UserSettings(ctx context.Context, accessToken string) (*trakt.UserSettings, error)
	CheckIn(ctx context.Context, accessToken string, req trakt.CheckInRequest) (*trakt.CheckInResponse, error)
	DeleteCheckIn(ctx context.Context, accessToken string) error
	PostComment(ctx context.Context, accessToken string, req trakt.CommentRequest) (*trakt.CommentResponse, error)
	AddRatings(ctx context.Context, accessToken string, req trakt.RatingsRequest) (*trakt.RatingsResponse, error)
}

// Connectivity answers "can we reach trakt right now".
type Connectivity interface {
	// Online may answer from a recent probe.
	Online(ctx context.Context) bool
	// Check always probes.
	Check(ctx context.Context) bool
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// PendingStore holds blocked check-in actions awaiting a user decision.
type PendingStore interface {
	Put(action models.CheckInAction)
	Take(id uuid.UUID) (models.CheckInAction, bool)
	List() []models.CheckInAction
}
