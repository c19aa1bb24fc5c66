package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ItemType is the kind of trakt item an action refers to.
type ItemType string

const (
	ItemEpisode ItemType = "episode"
	ItemMovie   ItemType = "movie"
)

// ParseItemType accepts "episode"/"movie" and their one-letter forms.
func ParseItemType(s string) (ItemType, error) {
	switch s {
	case "episode", "e", "ep":
		return ItemEpisode, nil
	case "movie", "m":
		return ItemMovie, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// CheckInAction is a check-in the user asked for.
type CheckInAction struct {
	ID      uuid.UUID
	Type    ItemType
	TraktID int
	Title   string
	Message string

	// Retried is set on the single automatic resubmission after the user
	// cancelled a conflicting check-in.
	Retried bool
}

// NewCheckInAction returns an action with a fresh id.
func NewCheckInAction(t ItemType, traktID int, title, message string) CheckInAction {
	return CheckInAction{
		ID:      uuid.New(),
		Type:    t,
		TraktID: traktID,
		Title:   title,
		Message: message,
	}
}

// CheckInConflict is trakt's answer when another check-in is still running.
// ExpiresAt is nil when trakt did not say when it ends.
type CheckInConflict struct {
	ExpiresAt *time.Time
}

// WaitSeconds returns the seconds left until the active check-in expires.
// ok is false when the expiry is unknown, now or already past; a known wait
// is rounded up and so is at least one second.
func (c CheckInConflict) WaitSeconds(now time.Time) (seconds int, ok bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	d := c.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return int(math.Ceil(d.Seconds())), true
}

// CheckInStatus is the outcome of one arbitration round.
type CheckInStatus string

const (
	CheckInSuccess CheckInStatus = "success"
	CheckInBlocked CheckInStatus = "blocked"
	CheckInWaited  CheckInStatus = "waited"

	// CheckInCancelled: the active check-in was removed and nothing was
	// resubmitted.
	CheckInCancelled CheckInStatus = "cancelled"
)

// CheckInResult is what the arbitration flow reports back.
type CheckInResult struct {
	Status   CheckInStatus
	Action   CheckInAction
	Conflict *CheckInConflict
	Message  string
}
