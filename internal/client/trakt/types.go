package trakt

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
)

// Token is the part of an OAuth token response the client keeps.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type UserSettings struct {
	User User `json:"user"`
}

type IDs struct {
	Trakt int `json:"trakt"`
}

type itemRef struct {
	IDs IDs `json:"ids"`
}

type Episode struct {
	Title  string `json:"title"`
	Season int    `json:"season"`
	Number int    `json:"number"`
	IDs    IDs    `json:"ids"`
}

type Show struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// CheckInRequest targets exactly one of Episode or Movie.
type CheckInRequest struct {
	Episode *itemRef `json:"episode,omitempty"`
	Movie   *itemRef `json:"movie,omitempty"`
	Message string   `json:"message,omitempty"`
}

// NewCheckInRequest builds the body for POST /checkin.
func NewCheckInRequest(t models.ItemType, traktID int, message string) CheckInRequest {
	req := CheckInRequest{Message: message}
	ref := &itemRef{IDs: IDs{Trakt: traktID}}
	if t == models.ItemMovie {
		req.Movie = ref
	} else {
		req.Episode = ref
	}
	return req
}

type CheckInResponse struct {
	ID        int64     `json:"id"`
	WatchedAt time.Time `json:"watched_at"`
	Episode   *Episode  `json:"episode,omitempty"`
	Show      *Show     `json:"show,omitempty"`
	Movie     *Movie    `json:"movie,omitempty"`
}

// Title converts the echoed item into display data.
func (r CheckInResponse) Title() models.Title {
	switch {
	case r.Movie != nil:
		return models.Title{Type: models.ItemMovie, TraktID: r.Movie.IDs.Trakt, Title: r.Movie.Title}
	case r.Episode != nil:
		t := models.Title{
			Type:    models.ItemEpisode,
			TraktID: r.Episode.IDs.Trakt,
			Title:   r.Episode.Title,
			Season:  r.Episode.Season,
			Number:  r.Episode.Number,
		}
		if r.Show != nil {
			t.ShowTitle = r.Show.Title
		}
		return t
	}
	return models.Title{}
}

type CommentRequest struct {
	Episode *itemRef `json:"episode,omitempty"`
	Movie   *itemRef `json:"movie,omitempty"`
	Comment string   `json:"comment"`
	Spoiler bool     `json:"spoiler"`
}

func NewCommentRequest(c models.Comment) CommentRequest {
	req := CommentRequest{Comment: c.Text, Spoiler: c.Spoiler}
	ref := &itemRef{IDs: IDs{Trakt: c.TraktID}}
	if c.Type == models.ItemMovie {
		req.Movie = ref
	} else {
		req.Episode = ref
	}
	return req
}

type CommentResponse struct {
	ID      int64  `json:"id"`
	Comment string `json:"comment"`
	Spoiler bool   `json:"spoiler"`
	User    User   `json:"user"`
}

type ratedItem struct {
	Rating int `json:"rating"`
	IDs    IDs `json:"ids"`
}

type RatingsRequest struct {
	Episodes []ratedItem `json:"episodes,omitempty"`
	Movies   []ratedItem `json:"movies,omitempty"`
}

func NewRatingsRequest(r models.Rating) RatingsRequest {
	item := ratedItem{Rating: r.Rating, IDs: IDs{Trakt: r.TraktID}}
	if r.Type == models.ItemMovie {
		return RatingsRequest{Movies: []ratedItem{item}}
	}
	return RatingsRequest{Episodes: []ratedItem{item}}
}

type ratingsCount struct {
	Episodes int `json:"episodes"`
	Movies   int `json:"movies"`
}

// RatingsResponse reports how many ratings trakt stored and which items it
// did not recognise.
type RatingsResponse struct {
	Added    ratingsCount `json:"added"`
	NotFound struct {
		Episodes []json.RawMessage `json:"episodes"`
		Movies   []json.RawMessage `json:"movies"`
	} `json:"not_found"`
}

// Missing reports whether trakt rejected any item as unknown.
func (r RatingsResponse) Missing() bool {
	return len(r.NotFound.Episodes)+len(r.NotFound.Movies) > 0
}

type conflictBody struct {
	WatchedAt *time.Time `json:"watched_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ParseConflict reads the expiry out of a 409 body from POST /checkin. A
// missing or unparsable expiry yields a conflict with unknown wait time.
func ParseConflict(body []byte) models.CheckInConflict {
	var cb conflictBody
	if err := json.Unmarshal(body, &cb); err != nil || cb.ExpiresAt == nil || cb.ExpiresAt.IsZero() {
		return models.CheckInConflict{}
	}
	return models.CheckInConflict{ExpiresAt: cb.ExpiresAt}
}
