package trakt

import (
	"context"
	"net/http"
)

// UserSettings calls GET /users/settings.
func (c *Client) UserSettings(ctx context.Context, accessToken string) (*UserSettings, error) {
	var out UserSettings
	if err := c.do(ctx, http.MethodGet, "/users/settings", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckIn calls POST /checkin. A running check-in yields an *HTTPError with
// status 409 whose body ParseConflict understands.
func (c *Client) CheckIn(ctx context.Context, accessToken string, req CheckInRequest) (*CheckInResponse, error) {
	var out CheckInResponse
	if err := c.do(ctx, http.MethodPost, "/checkin", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCheckIn calls DELETE /checkin.
func (c *Client) DeleteCheckIn(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodDelete, "/checkin", accessToken, nil, nil)
}

// PostComment calls POST /comments.
func (c *Client) PostComment(ctx context.Context, accessToken string, req CommentRequest) (*CommentResponse, error) {
	var out CommentResponse
	if err := c.do(ctx, http.MethodPost, "/comments", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddRatings calls POST /sync/ratings.
func (c *Client) AddRatings(ctx context.Context, accessToken string, req RatingsRequest) (*RatingsResponse, error) {
	var out RatingsResponse
	if err := c.do(ctx, http.MethodPost, "/sync/ratings", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
