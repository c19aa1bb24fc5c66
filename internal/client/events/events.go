// Package events is the in-process bus that carries results of background
// operations to whoever is currently listening. Workers publish and forget;
// a subscriber that has gone away simply stops receiving.
package events

import (
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/google/uuid"
)

// Type names an event variant.
type Type string

const (
	AuthSucceeded Type = "auth_succeeded"
	AuthFailed    Type = "auth_failed"

	// SyncRequested asks the reconciliation collaborator for a full sync.
	SyncRequested Type = "sync_requested"

	CredentialsInvalidated Type = "credentials_invalidated"
	TokenRefreshed         Type = "token_refreshed"

	CheckInSucceeded Type = "checkin_succeeded"
	CheckInBlocked   Type = "checkin_blocked"
	CheckInCompleted Type = "checkin_completed"

	CommentPosted Type = "comment_posted"
	Rated         Type = "rated"

	ActionFailed Type = "action_failed"
)

// Event is one message on the bus. Payload holds one of the payload types
// below, matching Type.
type Event struct {
	ID      uuid.UUID
	Type    Type
	At      time.Time
	Payload any
}

func New(t Type, payload any) Event {
	return Event{ID: uuid.New(), Type: t, At: time.Now(), Payload: payload}
}

// AuthResult accompanies AuthSucceeded and AuthFailed.
type AuthResult struct {
	Username string
	Err      error
}

// CheckInBlockedPayload carries the original request so the listener can
// offer cancel or wait.
type CheckInBlockedPayload struct {
	Action      models.CheckInAction
	WaitSeconds int
	WaitKnown   bool
}

// CheckInDone accompanies CheckInSucceeded and CheckInCompleted.
type CheckInDone struct {
	Action  models.CheckInAction
	Message string
	Waited  bool
}

// ActionResult accompanies CommentPosted and Rated.
type ActionResult struct {
	Message string
}

// Failure accompanies ActionFailed. Op names the operation that failed.
type Failure struct {
	Op  string
	Err error
}
