package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/titles"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/google/uuid"
)

// ErrNoPendingAction is returned for cancel/wait on an unknown or expired
// blocked check-in.
var ErrNoPendingAction = errors.New("no pending check-in with this id")

// CheckInService arbitrates check-ins against an already active one.
type CheckInService struct {
	api     TraktAPI
	store   CredentialStore
	net     Connectivity
	exec    *Executor
	pending PendingStore
	titles  titles.Repository
	bus     Publisher
	log     logging.Logger
	now     func() time.Time
}

func NewCheckInService(api TraktAPI, store CredentialStore, net Connectivity, exec *Executor,
	pending PendingStore, titleRepo titles.Repository, bus Publisher, log logging.Logger) *CheckInService {
	return &CheckInService{
		api:     api,
		store:   store,
		net:     net,
		exec:    exec,
		pending: pending,
		titles:  titleRepo,
		bus:     bus,
		log:     log.With("module", "checkin"),
		now:     time.Now,
	}
}

// CheckIn submits action. A conflict with an active check-in is not an
// error: the result is CheckInBlocked and the action waits in the pending
// store for CancelAndRetry or Wait.
func (s *CheckInService) CheckIn(ctx context.Context, action models.CheckInAction) (models.CheckInResult, error) {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	if action.Title == "" {
		action.Title = s.displayTitle(ctx, action.Type, action.TraktID)
	}

	if !s.net.Online(ctx) {
		return s.failed(ctx, "checkin", fmt.Errorf("checkin: %w", common.ErrOffline))
	}
	if !s.store.HasCredentials(ctx) {
		return s.failed(ctx, "checkin", fmt.Errorf("checkin: %w", common.ErrUnauthorized))
	}

	return s.submit(ctx, action)
}

func (s *CheckInService) submit(ctx context.Context, action models.CheckInAction) (models.CheckInResult, error) {
	var resp *trakt.CheckInResponse
	err := s.exec.Do(ctx, "checkin", func(ctx context.Context, accessToken string) error {
		var err error
		resp, err = s.api.CheckIn(ctx, accessToken, trakt.NewCheckInRequest(action.Type, action.TraktID, action.Message))
		return err
	})

	if err == nil {
		if t := resp.Title(); t.TraktID != 0 {
			if uerr := s.titles.Upsert(ctx, t); uerr != nil {
				s.log.Warn(ctx, "failed to remember title", "trakt_id", t.TraktID, "error", uerr)
			}
			if d := t.Display(); d != "" {
				action.Title = d
			}
		}

		msg := fmt.Sprintf("Checked in: %s", action.Title)
		s.log.Info(ctx, "checked in", "type", action.Type, "trakt_id", action.TraktID, "retried", action.Retried)
		s.bus.Publish(ctx, events.New(events.CheckInSucceeded, events.CheckInDone{Action: action, Message: msg}))
		return models.CheckInResult{Status: models.CheckInSuccess, Action: action, Message: msg}, nil
	}

	if !errors.Is(err, common.ErrCheckInConflict) {
		return s.failed(ctx, "checkin", err)
	}

	var conflict models.CheckInConflict
	var herr *trakt.HTTPError
	if errors.As(err, &herr) {
		conflict = trakt.ParseConflict(herr.Body)
	}
	wait, known := conflict.WaitSeconds(s.now())

	s.pending.Put(action)

	msg := blockedMessage(wait, known)
	s.log.Info(ctx, "check-in blocked by active check-in", "action_id", action.ID, "wait_seconds", wait, "wait_known", known)
	s.bus.Publish(ctx, events.New(events.CheckInBlocked, events.CheckInBlockedPayload{
		Action:      action,
		WaitSeconds: wait,
		WaitKnown:   known,
	}))

	return models.CheckInResult{
		Status:   models.CheckInBlocked,
		Action:   action,
		Conflict: &conflict,
		Message:  msg,
	}, nil
}

func blockedMessage(wait int, known bool) string {
	if !known {
		return "Another check-in is in progress."
	}
	if wait < 60 {
		return fmt.Sprintf("Another check-in is in progress, it ends in %d s.", wait)
	}
	return fmt.Sprintf("Another check-in is in progress, it ends in %d min.", (wait+59)/60)
}

// CancelAndRetry deletes the active check-in and resubmits the blocked
// action once. An action that already is the resubmission is not sent again:
// the active check-in is removed and the result is CheckInCancelled.
func (s *CheckInService) CancelAndRetry(ctx context.Context, id uuid.UUID) (models.CheckInResult, error) {
	action, ok := s.pending.Take(id)
	if !ok {
		return models.CheckInResult{}, ErrNoPendingAction
	}

	err := s.exec.Do(ctx, "cancel checkin", func(ctx context.Context, accessToken string) error {
		return s.api.DeleteCheckIn(ctx, accessToken)
	})
	if err != nil {
		return s.failed(ctx, "cancel checkin", err)
	}

	if action.Retried {
		msg := "Active check-in cancelled."
		s.bus.Publish(ctx, events.New(events.CheckInCompleted, events.CheckInDone{Action: action, Message: msg}))
		return models.CheckInResult{Status: models.CheckInCancelled, Action: action, Message: msg}, nil
	}

	action.Retried = true
	return s.submit(ctx, action)
}

// Wait drops the blocked action without contacting trakt.
func (s *CheckInService) Wait(ctx context.Context, id uuid.UUID) (models.CheckInResult, error) {
	action, ok := s.pending.Take(id)
	if !ok {
		return models.CheckInResult{}, ErrNoPendingAction
	}

	msg := fmt.Sprintf("Not checked in: %s", action.Title)
	s.bus.Publish(ctx, events.New(events.CheckInCompleted, events.CheckInDone{Action: action, Message: msg, Waited: true}))
	return models.CheckInResult{Status: models.CheckInWaited, Action: action, Message: msg}, nil
}

// Pending lists the blocked actions awaiting a decision.
func (s *CheckInService) Pending() []models.CheckInAction {
	return s.pending.List()
}

func (s *CheckInService) failed(ctx context.Context, op string, err error) (models.CheckInResult, error) {
	s.bus.Publish(ctx, events.New(events.ActionFailed, events.Failure{Op: op, Err: err}))
	return models.CheckInResult{}, err
}

func (s *CheckInService) displayTitle(ctx context.Context, t models.ItemType, traktID int) string {
	return lookupTitle(ctx, s.titles, s.log, t, traktID)
}

func lookupTitle(ctx context.Context, repo titles.Repository, log logging.Logger, t models.ItemType, traktID int) string {
	title, err := repo.Get(ctx, t, traktID)
	if err == nil {
		if d := title.Display(); d != "" {
			return d
		}
	} else if !errors.Is(err, titles.ErrTitleNotFound) {
		log.Warn(ctx, "title lookup failed", "trakt_id", traktID, "error", err)
	}
	return fmt.Sprintf("%s %d", t, traktID)
}
