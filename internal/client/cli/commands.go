package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sgtrakt/internal/client/callback"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/services"
	"github.com/google/uuid"
)

// usageError carries the usage line of a command called with bad arguments.
type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

const (
	usageCallback = "callback <redirect-url>"
	usageCheckIn  = "checkin episode|movie <trakt-id> [message]"
	usageCancel   = "cancel <action-id>"
	usageWait     = "wait <action-id>"
	usageComment  = "comment episode|movie <trakt-id> [--spoiler] <text>"
	usageRate     = "rate episode|movie <trakt-id> <1-10>"
	usageTitleAdd = "title add episode|movie <trakt-id> <title>"
)

// parseTarget reads "<type> <trakt-id>" from the front of args.
func parseTarget(args []string) (models.ItemType, int, []string, error) {
	if len(args) < 2 {
		return "", 0, nil, errors.New("missing item type or id")
	}
	t, err := models.ParseItemType(args[0])
	if err != nil {
		return "", 0, nil, err
	}
	id, err := strconv.Atoi(args[1])
	if err != nil || id < 1 {
		return "", 0, nil, fmt.Errorf("invalid trakt id %q", args[1])
	}
	return t, id, args[2:], nil
}

func parseActionID(args []string, usage string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, usageError(usage)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, usageError(usage)
	}
	return id, nil
}

func (a *App) Status(ctx context.Context) error {
	creds, err := a.store.Load(ctx)
	if err != nil {
		a.println(messageFor(err))
		return err
	}

	switch {
	case creds.Linked():
		name := creds.Username
		if creds.DisplayName != "" {
			name = fmt.Sprintf("%s (%s)", creds.Username, creds.DisplayName)
		}
		a.println("Linked to trakt as", name+".", "Token valid until", creds.Expiry.Local().Format("2006-01-02 15:04")+".")
	case creds.Username != "":
		a.println("trakt rejected the credentials for", creds.Username+". Run 'connect' to link again.")
	default:
		a.println("Not linked to trakt. Run 'connect'.")
	}

	state, reason := a.auth.State()
	if reason != services.ReasonNone {
		a.println("Authorization:", string(state), "("+string(reason)+")")
	} else {
		a.println("Authorization:", string(state))
	}

	if m := a.getMode(); m != "" {
		a.println("Connectivity:", string(m))
	}
	if n := a.pending.Len(); n > 0 {
		a.println("Blocked check-ins:", n)
	}
	return nil
}

func (a *App) Connect(ctx context.Context) error {
	res, err := a.auth.Launch(ctx)
	if err != nil {
		a.println(messageFor(err))
		return err
	}

	if res.Fallback {
		a.println("Could not open a browser. Open this address, approve access, then run 'callback <url>' with the address trakt sends you to:")
	} else {
		a.println("Approve access in the browser window. If none opened, visit:")
	}
	a.println(res.URL)
	return nil
}

func (a *App) Callback(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(usageCallback)
	}
	raw := args[0]

	a.runAsync(ctx, func(ctx context.Context) {
		err := a.auth.HandleCallback(ctx, raw)
		// other outcomes arrive as auth events
		if errors.Is(err, callback.ErrNotRedirect) {
			a.println(messageFor(err))
		}
	})
	return nil
}

func (a *App) Dismiss(ctx context.Context) error {
	if err := a.auth.Dismiss(ctx); err != nil {
		a.println(messageFor(err))
		return err
	}
	a.println("Authorization cancelled.")
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.connector.Disconnect(ctx); err != nil {
		a.println(messageFor(err))
		return err
	}
	a.println("Disconnected from trakt.")
	return nil
}

func (a *App) CheckIn(ctx context.Context, args []string) error {
	t, id, rest, err := parseTarget(args)
	if err != nil {
		return usageError(usageCheckIn)
	}
	action := models.NewCheckInAction(t, id, "", strings.Join(rest, " "))

	a.runAsync(ctx, func(ctx context.Context) {
		// results and failures are published
		_, _ = a.checkins.CheckIn(ctx, action)
	})
	return nil
}

func (a *App) Cancel(ctx context.Context, args []string) error {
	id, err := parseActionID(args, usageCancel)
	if err != nil {
		return err
	}

	a.runAsync(ctx, func(ctx context.Context) {
		if _, err := a.checkins.CancelAndRetry(ctx, id); errors.Is(err, services.ErrNoPendingAction) {
			a.println(messageFor(err))
		}
	})
	return nil
}

func (a *App) Wait(ctx context.Context, args []string) error {
	id, err := parseActionID(args, usageWait)
	if err != nil {
		return err
	}

	if _, err := a.checkins.Wait(ctx, id); err != nil {
		a.println(messageFor(err))
		return err
	}
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	actions := a.checkins.Pending()
	if len(actions) == 0 {
		a.println("No blocked check-ins.")
		return nil
	}
	for _, act := range actions {
		a.println(act.ID.String(), act.Type, act.TraktID, act.Title)
	}
	return nil
}

func (a *App) Comment(ctx context.Context, args []string) error {
	t, id, rest, err := parseTarget(args)
	if err != nil {
		return usageError(usageComment)
	}

	spoiler := false
	if len(rest) > 0 && rest[0] == "--spoiler" {
		spoiler, rest = true, rest[1:]
	}
	if len(rest) == 0 {
		return usageError(usageComment)
	}
	c := models.Comment{Type: t, TraktID: id, Text: strings.Join(rest, " "), Spoiler: spoiler}

	a.runAsync(ctx, func(ctx context.Context) {
		_, _ = a.comments.Post(ctx, c)
	})
	return nil
}

func (a *App) Rate(ctx context.Context, args []string) error {
	t, id, rest, err := parseTarget(args)
	if err != nil || len(rest) != 1 {
		return usageError(usageRate)
	}
	score, err := strconv.Atoi(rest[0])
	if err != nil {
		return usageError(usageRate)
	}
	r := models.Rating{Type: t, TraktID: id, Rating: score}

	a.runAsync(ctx, func(ctx context.Context) {
		_, _ = a.comments.Rate(ctx, r)
	})
	return nil
}

// AddTitle stores a display title so messages can name the item.
func (a *App) AddTitle(ctx context.Context, args []string) error {
	t, id, rest, err := parseTarget(args)
	if err != nil || len(rest) == 0 {
		return usageError(usageTitleAdd)
	}

	title := models.Title{Type: t, TraktID: id, Title: strings.Join(rest, " ")}
	if err := a.titles.Upsert(ctx, title); err != nil {
		a.log.Error(ctx, "failed to store title", "error", err)
		a.println("Could not save the title.")
		return err
	}
	a.println("Saved:", title.Display())
	return nil
}

func (a *App) Titles(ctx context.Context) error {
	list, err := a.titles.List(ctx)
	if err != nil {
		a.log.Error(ctx, "failed to list titles", "error", err)
		a.println("Could not read titles.")
		return err
	}
	if len(list) == 0 {
		a.println("No titles stored.")
		return nil
	}
	for _, t := range list {
		a.println(fmt.Sprintf("%-7s %8d  %s", t.Type, t.TraktID, t.Display()))
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	a.runAsync(ctx, func(ctx context.Context) {
		if err := a.connector.Refresh(ctx); err != nil {
			a.println(messageFor(err))
			return
		}
		a.println("Access token refreshed.")
	})
	return nil
}
