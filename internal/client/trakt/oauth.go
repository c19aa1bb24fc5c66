package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
)

var ErrIncompleteToken = errors.New("token response incomplete")

// AuthCodeURL builds the authorize URL carrying client_id, redirect_uri,
// response_type=code and state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens. A response lacking the
// access token, refresh token or a positive expires_in yields
// ErrIncompleteToken.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tok, err := c.oauthConfig().Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, c.tokenError("exchange", err)
	}
	return tokenFromOAuth(tok)
}

// Refresh runs the refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	src := c.oauthConfig().TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, c.tokenError("refresh", err)
	}
	return tokenFromOAuth(tok)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// tokenError turns oauth2.RetrieveError into *HTTPError so callers see the
// same error shape as for REST calls.
func (c *Client) tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return fmt.Errorf("token %s: %w", op, &HTTPError{
			StatusCode: re.Response.StatusCode,
			Body:       re.Body,
			Endpoint:   "POST /oauth/token",
		})
	}
	return fmt.Errorf("token %s: %w", op, err)
}

func tokenFromOAuth(tok *oauth2.Token) (*Token, error) {
	t := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
	}
	if t.AccessToken == "" || t.RefreshToken == "" || t.ExpiresIn < 1 {
		return nil, ErrIncompleteToken
	}
	return t, nil
}

func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
