// Package callback receives the OAuth redirect from trakt: a loopback HTTP
// listener for the browser flow and a parser for redirect URLs the user
// pastes back when the browser could not be launched.
package callback

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotRedirect means the URL does not point at our redirect URI and must be
// left alone.
var ErrNotRedirect = errors.New("not a redirect to the configured URI")

// Params are the query parameters trakt appends to the redirect URI.
type Params struct {
	Code  string
	State string

	// Error is set when trakt reports a denied or failed authorization.
	Error string
}

// ParseRedirect matches raw against redirectURI by prefix and extracts the
// callback parameters. Matching is case-insensitive on scheme and host only.
func ParseRedirect(raw, redirectURI string) (Params, error) {
	raw = strings.TrimSpace(raw)
	if !hasRedirectPrefix(raw, redirectURI) {
		return Params{}, ErrNotRedirect
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("parse redirect: %w", err)
	}

	q := u.Query()
	return Params{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}, nil
}

func hasRedirectPrefix(raw, redirectURI string) bool {
	if redirectURI == "" {
		return false
	}
	got, err := url.Parse(raw)
	if err != nil {
		return false
	}
	want, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	if !strings.EqualFold(got.Scheme, want.Scheme) || !strings.EqualFold(got.Host, want.Host) {
		return false
	}
	// custom schemes like sgoauth://callback carry the route in the host
	return strings.TrimSuffix(got.Path, "/") == strings.TrimSuffix(want.Path, "/")
}

// RoutePath is the HTTP path the listener serves for redirectURI.
func RoutePath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}
