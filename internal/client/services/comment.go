package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sgtrakt/internal/client/events"
	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/client/repositories/titles"
	"github.com/dmitrijs2005/sgtrakt/internal/client/trakt"
	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
)

// trakt rejects comments shorter than this.
const minCommentWords = 5

// CommentService posts comments and ratings.
type CommentService struct {
	api    TraktAPI
	exec   *Executor
	titles titles.Repository
	bus    Publisher
	log    logging.Logger
}

func NewCommentService(api TraktAPI, exec *Executor, titleRepo titles.Repository, bus Publisher, log logging.Logger) *CommentService {
	return &CommentService{api: api, exec: exec, titles: titleRepo, bus: bus, log: log.With("module", "comment")}
}

// ValidateComment applies trakt's rules locally.
func ValidateComment(text string) error {
	n := len(strings.Fields(text))
	if n == 0 {
		return fmt.Errorf("comment is empty: %w", common.ErrValidationFailed)
	}
	if n < minCommentWords {
		return fmt.Errorf("comment needs at least %d words: %w", minCommentWords, common.ErrValidationFailed)
	}
	return nil
}

func (s *CommentService) Post(ctx context.Context, c models.Comment) (string, error) {
	if err := ValidateComment(c.Text); err != nil {
		return "", s.failed(ctx, "comment", err)
	}

	err := s.exec.Do(ctx, "comment", func(ctx context.Context, accessToken string) error {
		_, err := s.api.PostComment(ctx, accessToken, trakt.NewCommentRequest(c))
		return err
	})
	if err != nil {
		return "", s.failed(ctx, "comment", err)
	}

	msg := fmt.Sprintf("Comment posted: %s", lookupTitle(ctx, s.titles, s.log, c.Type, c.TraktID))
	s.bus.Publish(ctx, events.New(events.CommentPosted, events.ActionResult{Message: msg}))
	return msg, nil
}

func (s *CommentService) Rate(ctx context.Context, r models.Rating) (string, error) {
	if r.Rating < 1 || r.Rating > 10 {
		return "", s.failed(ctx, "rate", fmt.Errorf("rating %d outside 1..10: %w", r.Rating, common.ErrValidationFailed))
	}

	var resp *trakt.RatingsResponse
	err := s.exec.Do(ctx, "rate", func(ctx context.Context, accessToken string) error {
		var err error
		resp, err = s.api.AddRatings(ctx, accessToken, trakt.NewRatingsRequest(r))
		return err
	})
	if err == nil && resp.Missing() {
		err = fmt.Errorf("rate: %w", common.ErrNotFound)
	}
	if err != nil {
		return "", s.failed(ctx, "rate", err)
	}

	msg := fmt.Sprintf("Rated %s: %d/10", lookupTitle(ctx, s.titles, s.log, r.Type, r.TraktID), r.Rating)
	s.bus.Publish(ctx, events.New(events.Rated, events.ActionResult{Message: msg}))
	return msg, nil
}

func (s *CommentService) failed(ctx context.Context, op string, err error) error {
	s.bus.Publish(ctx, events.New(events.ActionFailed, events.Failure{Op: op, Err: err}))
	return err
}
